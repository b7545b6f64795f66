//go:build !linux

package input

import (
	"context"
	"log/slog"

	"github.com/soar/padmapper/internal/event"
)

// EvdevReader is only available on linux.
type EvdevReader struct{}

func NewEvdevReader(*Registry, bool, *slog.Logger) *EvdevReader { return &EvdevReader{} }

func (r *EvdevReader) Open() error { return ErrUnsupported }

func (r *EvdevReader) Run(ctx context.Context, _ chan<- event.Event) error {
	<-ctx.Done()
	return nil
}
