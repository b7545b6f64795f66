package adapter

import (
	"bytes"
	"errors"
	"log/slog"
	"time"

	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/report"
)

// States gives access to the per-controller axis state.
type States interface {
	State(c int) *controller.State
}

// Target binds one controller to its sink.
type Target struct {
	Controller int
	Family     controller.Family
	Sink       Sink
}

type sent struct {
	payload []byte
	at      time.Time
	failing bool
}

// Sender encodes controller state once per tick and forwards reports that
// changed, or that are due for a keep-alive.
type Sender struct {
	states    States
	targets   []Target
	keepalive time.Duration
	logger    *slog.Logger
	last      []sent
}

func NewSender(states States, targets []Target, keepalive time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		states:    states,
		targets:   targets,
		keepalive: keepalive,
		logger:    logger,
		last:      make([]sent, len(targets)),
	}
}

// Send runs one tick. Errors are logged once per failure streak.
func (s *Sender) Send(now time.Time) {
	for i, t := range s.targets {
		st := s.states.State(t.Controller)
		if st == nil {
			continue
		}
		r, err := report.Encode(t.Family, st.Snapshot())
		if err != nil {
			if !s.last[i].failing {
				s.logger.Error("encode report", "controller", t.Controller+1, "error", err)
				s.last[i].failing = true
			}
			continue
		}
		prev := &s.last[i]
		if prev.payload != nil && bytes.Equal(prev.payload, r.Payload) &&
			(s.keepalive <= 0 || now.Sub(prev.at) < s.keepalive) {
			continue
		}
		if err := t.Sink.Send(r); err != nil {
			if !prev.failing {
				s.logger.Warn("send report", "controller", t.Controller+1, "error", err)
				prev.failing = true
			}
			continue
		}
		if prev.failing {
			s.logger.Info("adapter recovered", "controller", t.Controller+1)
		}
		*prev = sent{payload: r.Payload, at: now}
	}
}

// Close closes every sink.
func (s *Sender) Close() error {
	var errs []error
	for _, t := range s.targets {
		errs = append(errs, t.Sink.Close())
	}
	return errors.Join(errs...)
}
