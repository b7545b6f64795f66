// Package report encodes controller axis state into the byte layouts the
// adapter forwards to each console family.
package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soar/padmapper/internal/controller"
)

// Axes is the controller state in percent, as read from controller.State.
type Axes = [controller.AxisMax]int32

// Report is an encoded report tagged with its family.
type Report struct {
	Family  controller.Family
	Payload []byte
}

// Packet frames the report for the adapter: type byte, length byte, payload.
func (r Report) Packet() []byte {
	out := make([]byte, 0, len(r.Payload)+2)
	out = append(out, packetReport, byte(len(r.Payload)))
	return append(out, r.Payload...)
}

const packetReport = 0xff

// Builder encodes axes for one family. Implementations hold no state.
type Builder interface {
	Build(axes Axes) Report
}

var ErrUnsupportedFamily = errors.New("unsupported controller family")

var (
	mu       sync.RWMutex
	builders = map[controller.Family]Builder{}
)

// Register installs b for family f, replacing any previous builder.
func Register(f controller.Family, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	builders[f] = b
}

// Lookup returns the builder of family f.
func Lookup(f controller.Family) (Builder, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, f)
	}
	return b, nil
}

// Encode builds the report of family f.
func Encode(f controller.Family, axes Axes) (Report, error) {
	b, err := Lookup(f)
	if err != nil {
		return Report{}, err
	}
	return b.Build(axes), nil
}

func init() {
	for f, l := range layouts {
		Register(f, l)
	}
}
