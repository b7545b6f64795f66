package adapter

import (
	"fmt"
	"time"

	"github.com/soar/padmapper/internal/controller"
)

const (
	packetType     = 0x11
	packetTypeAsk  = 0x00
	packetTypeTell = 0x01
)

// adapterTypes maps the type byte an adapter reports to a family.
var adapterTypes = map[byte]controller.Family{
	0x00: controller.Joystick,
	0x01: controller.X360,
	0x02: controller.DS3,
	0x04: controller.XOne,
	0x05: controller.DS4,
}

// Detect asks the adapter which controller it emulates.
func Detect(p Port, timeout time.Duration) (controller.Family, error) {
	if err := p.Write([]byte{packetType, packetTypeAsk}); err != nil {
		return 0, fmt.Errorf("ask adapter type: %w", err)
	}
	reply := make([]byte, 3)
	got := 0
	deadline := time.Now().Add(timeout)
	for got < len(reply) {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, ErrTimeout
		}
		n, err := p.ReadTimeout(reply[got:], left)
		if err != nil {
			return 0, fmt.Errorf("read adapter type: %w", err)
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		got += n
	}
	if reply[0] != packetType || reply[1] != packetTypeTell {
		return 0, fmt.Errorf("unexpected adapter reply % x", reply)
	}
	f, ok := adapterTypes[reply[2]]
	if !ok {
		return 0, fmt.Errorf("%w: adapter type %#x", controller.ErrUnknownFamily, reply[2])
	}
	return f, nil
}
