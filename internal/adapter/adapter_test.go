package adapter

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/report"
)

type recorder struct {
	sent   []report.Report
	err    error
	closed bool
}

func (r *recorder) Send(rep report.Report) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, rep)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

type states []*controller.State

func (s states) State(c int) *controller.State {
	if c < 0 || c >= len(s) {
		return nil
	}
	return s[c]
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSenderOnChangeAndKeepalive(t *testing.T) {
	st := states{new(controller.State)}
	rec := &recorder{}
	s := NewSender(st, []Target{{Controller: 0, Family: controller.X360, Sink: rec}}, 100*time.Millisecond, quiet())
	t0 := time.Unix(0, 0)

	s.Send(t0)
	s.Send(t0.Add(10 * time.Millisecond))
	if len(rec.sent) != 1 {
		t.Fatalf("unchanged state sent %d times, want 1", len(rec.sent))
	}

	st[0].Set(controller.Cross, 100)
	s.Send(t0.Add(20 * time.Millisecond))
	if len(rec.sent) != 2 {
		t.Fatalf("changed state not sent, got %d", len(rec.sent))
	}

	s.Send(t0.Add(130 * time.Millisecond))
	if len(rec.sent) != 3 {
		t.Errorf("keep-alive not sent, got %d", len(rec.sent))
	}
}

func TestSenderRetriesAfterError(t *testing.T) {
	st := states{new(controller.State)}
	rec := &recorder{err: errors.New("unplugged")}
	s := NewSender(st, []Target{{Family: controller.DS4, Sink: rec}}, 0, quiet())
	now := time.Unix(0, 0)

	s.Send(now)
	if len(rec.sent) != 0 {
		t.Fatal("report recorded despite error")
	}
	rec.err = nil
	s.Send(now)
	if len(rec.sent) != 1 {
		t.Errorf("report not resent after recovery")
	}
}

func TestSenderSkipsUnknownController(t *testing.T) {
	rec := &recorder{}
	s := NewSender(states{}, []Target{{Controller: 3, Family: controller.GPP, Sink: rec}}, 0, quiet())
	s.Send(time.Now())
	if len(rec.sent) != 0 {
		t.Errorf("sent %d reports for missing controller", len(rec.sent))
	}
	if err := s.Close(); err != nil || !rec.closed {
		t.Errorf("Close = %v, closed %v", err, rec.closed)
	}
}

type fakePort struct {
	written []byte
	reply   [][]byte
}

func (p *fakePort) Write(b []byte) error {
	p.written = append(p.written, b...)
	return nil
}

func (p *fakePort) ReadTimeout(buf []byte, _ time.Duration) (int, error) {
	if len(p.reply) == 0 {
		return 0, nil
	}
	n := copy(buf, p.reply[0])
	p.reply = p.reply[1:]
	return n, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		reply [][]byte
		want  controller.Family
		err   bool
	}{
		{"ds4", [][]byte{{0x11, 0x01, 0x05}}, controller.DS4, false},
		{"split reply", [][]byte{{0x11}, {0x01, 0x01}}, controller.X360, false},
		{"silent", nil, 0, true},
		{"garbage", [][]byte{{0x12, 0x01, 0x00}}, 0, true},
		{"unknown type", [][]byte{{0x11, 0x01, 0x7f}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePort{reply: tt.reply}
			got, err := Detect(p, time.Second)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if !tt.err && got != tt.want {
				t.Errorf("family = %v, want %v", got, tt.want)
			}
			if len(p.written) != 2 || p.written[0] != 0x11 {
				t.Errorf("request = % x", p.written)
			}
		})
	}
}

func TestOpenLogSink(t *testing.T) {
	tgt, err := Open(Options{Controller: 1, Sink: "log", Family: "ds3"}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if tgt.Family != controller.DS3 || tgt.Controller != 1 {
		t.Errorf("target = %+v", tgt)
	}
	if _, err := Open(Options{Sink: "carrier-pigeon"}, quiet()); err == nil {
		t.Error("unknown sink accepted")
	}
}
