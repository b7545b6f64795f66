package binding

import (
	"strings"
	"time"

	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/shape"
)

// MouseMode selects how accumulated mouse motion is turned into stick
// deflection.
type MouseMode uint8

const (
	Aiming MouseMode = iota
	Driving
)

func (m MouseMode) String() string {
	if m == Driving {
		return "Driving"
	}
	return "Aiming"
}

// ParseMouseMode falls back to Aiming; ok is false when s was not a known
// mode, including the empty string.
func ParseMouseMode(s string) (MouseMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aiming":
		return Aiming, true
	case "driving":
		return Driving, true
	}
	return Aiming, false
}

// MouseOptions control smoothing of one mouse's motion. BufferSize is the
// number of ticks a delta is spread over, Filter the exponential smoothing
// factor in [0,1].
type MouseOptions struct {
	Mode       MouseMode
	BufferSize int
	Filter     float64
}

// DefaultMouseOptions apply to mice without explicit options.
func DefaultMouseOptions() MouseOptions {
	return MouseOptions{Mode: Aiming, BufferSize: 1}
}

// Intensity drives a stick or axis from buttons at an adjustable magnitude.
// Up and Down may be the same event, in which case presses cycle.
type Intensity struct {
	Axis     controller.Axis
	DeadZone int
	Shape    shape.Shape
	Steps    int
	Up       *EventID
	Down     *EventID
}

// TriggerSpec is the event that selects a configuration.
type TriggerSpec struct {
	Event      EventID
	SwitchBack bool
	Delay      time.Duration
}

// Configuration is one complete, selectable binding set.
type Configuration struct {
	ID          int
	Bindings    *Table
	Mouse       map[int]MouseOptions
	Intensities map[controller.Axis]Intensity
	Trigger     *TriggerSpec
}

// MouseOptionsFor returns the options of mouse device id.
func (c *Configuration) MouseOptionsFor(id int) MouseOptions {
	if o, ok := c.Mouse[id]; ok {
		return o
	}
	return DefaultMouseOptions()
}

// IntensityFor returns the intensity driving axis a. An intensity set on a
// stick's X axis covers both axes of that stick.
func (c *Configuration) IntensityFor(a controller.Axis) (Intensity, bool) {
	if it, ok := c.Intensities[a]; ok {
		return it, true
	}
	if stick, ok := controller.StickOf(a); ok {
		it, ok := c.Intensities[stick]
		return it, ok
	}
	return Intensity{}, false
}

// ControllerProfile holds the configurations of one controller. DPI is the
// mouse resolution the profile was tuned with, 0 when unknown.
type ControllerProfile struct {
	ID      int
	DPI     int
	Configs [controller.MaxConfigurations]*Configuration
}

// Configured lists the indexes of present configurations in order.
func (p *ControllerProfile) Configured() []int {
	if p == nil {
		return nil
	}
	var ids []int
	for i, c := range p.Configs {
		if c != nil {
			ids = append(ids, i)
		}
	}
	return ids
}

// Profile is the complete loaded mapping for all controllers.
type Profile struct {
	Controllers [controller.MaxControllers]*ControllerProfile
	SingleInput bool
}
