package adapter

import (
	"fmt"

	"github.com/karalabe/hid"

	"github.com/soar/padmapper/internal/report"
)

// HIDSink writes raw reports to a usb hid adapter such as a GPP device.
type HIDSink struct {
	dev *hid.Device
}

// OpenHID opens the first hid device matching vendor and product.
func OpenHID(vendor, product uint16) (*HIDSink, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("%w: hid is not supported on this platform", ErrNoDevice)
	}
	devices := hid.Enumerate(vendor, product)
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrNoDevice, vendor, product)
	}
	dev, err := devices[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open hid %04x:%04x: %w", vendor, product, err)
	}
	return &HIDSink{dev: dev}, nil
}

// Send writes the payload behind a zero report id.
func (s *HIDSink) Send(r report.Report) error {
	buf := make([]byte, 0, len(r.Payload)+1)
	buf = append(buf, 0x00)
	buf = append(buf, r.Payload...)
	_, err := s.dev.Write(buf)
	return err
}

func (s *HIDSink) Close() error { return s.dev.Close() }
