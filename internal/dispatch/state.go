package dispatch

import (
	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/shape"
)

const (
	dirNegative = 0
	dirPositive = 1
)

// stickInput is the last analog input of a stick axis before shaping.
type stickInput struct {
	value  int
	params shape.Params
	set    bool
}

// ctrlState is the dispatcher's working memory for one controller. It is
// discarded on every configuration switch.
type ctrlState struct {
	held    [controller.AxisMax][2]int
	mag     [controller.AxisMax][2]int
	last    [controller.AxisMax]int
	toggled [controller.AxisMax]bool
	stick   [controller.AxisMax]stickInput
	halves  map[binding.EventID]bool
	levels  map[controller.Axis]*shape.Level
	mice    map[int]*mouseState
}

func newCtrlState() *ctrlState {
	return &ctrlState{
		halves: make(map[binding.EventID]bool),
		levels: make(map[controller.Axis]*shape.Level),
		mice:   make(map[int]*mouseState),
	}
}

func (cs *ctrlState) isHeld(a controller.Axis) bool {
	return cs.held[a][dirNegative] > 0 || cs.held[a][dirPositive] > 0
}

// direction returns the held direction of a; when both are held the most
// recently pressed one wins.
func (cs *ctrlState) direction(a controller.Axis) (int, bool) {
	neg, pos := cs.held[a][dirNegative] > 0, cs.held[a][dirPositive] > 0
	switch {
	case neg && pos:
		return cs.last[a], true
	case neg:
		return dirNegative, true
	case pos:
		return dirPositive, true
	}
	return 0, false
}

func (cs *ctrlState) level(it binding.Intensity) *shape.Level {
	l, ok := cs.levels[it.Axis]
	if !ok {
		l = shape.NewLevel(it.DeadZone, it.Steps)
		cs.levels[it.Axis] = l
	}
	return l
}
