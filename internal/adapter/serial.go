package adapter

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/soar/padmapper/internal/report"
)

// DefaultBaud is the rate of the usb-serial adapters.
const DefaultBaud = 500000

// SerialSink writes framed reports to a usb-serial adapter.
type SerialSink struct {
	name string
	port serial.Port
}

// OpenSerial opens the adapter on the named port. A zero baud rate selects
// DefaultBaud.
func OpenSerial(name string, baud int) (*SerialSink, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return &SerialSink{name: name, port: p}, nil
}

// SerialPorts lists the serial ports present on the system.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

func (s *SerialSink) Send(r report.Report) error {
	return s.Write(r.Packet())
}

func (s *SerialSink) Write(b []byte) error {
	for len(b) > 0 {
		n, err := s.port.Write(b)
		if err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
		b = b[n:]
	}
	return nil
}

func (s *SerialSink) ReadTimeout(buf []byte, d time.Duration) (int, error) {
	if err := s.port.SetReadTimeout(d); err != nil {
		return 0, err
	}
	return s.port.Read(buf)
}

func (s *SerialSink) Close() error { return s.port.Close() }
