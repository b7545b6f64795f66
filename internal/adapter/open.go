package adapter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soar/padmapper/internal/controller"
)

const detectTimeout = time.Second

// Options describe one adapter as found in the configuration file.
type Options struct {
	Controller int // 0-based
	Family     string
	Sink       string
	Port       string
	Baud       int
	Address    string
	VendorID   uint16
	ProductID  uint16
}

// Open creates the sink described by o. Serial and tcp adapters without an
// explicit family are asked for it.
func Open(o Options, logger *slog.Logger) (Target, error) {
	t := Target{Controller: o.Controller}
	var (
		sink Sink
		port Port
		err  error
	)
	switch strings.ToLower(o.Sink) {
	case "serial":
		var s *SerialSink
		s, err = OpenSerial(o.Port, o.Baud)
		sink, port = s, s
	case "tcp":
		var s *TCPSink
		s, err = DialTCP(o.Address)
		sink, port = s, s
	case "hid":
		sink, err = OpenHID(o.VendorID, o.ProductID)
		if o.Family == "" {
			o.Family = controller.GPP.String()
		}
	case "", "log":
		sink = &LogSink{Controller: o.Controller, Logger: logger}
		if o.Family == "" {
			o.Family = controller.Joystick.String()
		}
	default:
		return t, fmt.Errorf("controller %d: unknown sink %q", o.Controller+1, o.Sink)
	}
	if err != nil {
		return t, err
	}
	t.Sink = sink

	if o.Family != "" {
		t.Family, err = controller.ParseFamily(o.Family)
	} else {
		t.Family, err = Detect(port, detectTimeout)
		if err == nil {
			logger.Info("adapter detected", "controller", o.Controller+1, "family", t.Family.String())
		}
	}
	if err != nil {
		sink.Close()
		return t, fmt.Errorf("controller %d: %w", o.Controller+1, err)
	}
	return t, nil
}
