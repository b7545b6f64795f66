package report

import (
	"encoding/binary"

	"github.com/soar/padmapper/internal/controller"
)

// rule converts one axis percentage into report bytes.
type rule uint8

const (
	stick8     rule = iota // unsigned byte centred on 0x80
	stick16                // little-endian int16
	stick16Inv             // little-endian int16, up positive
	motion10               // big-endian 10 bit centred on 512
	pressure8              // 0..255
	trigger10              // little-endian 0..1023
	bit                    // mask set while pressed
	percent                // signed percent byte
	hat                    // low nibble direction from the four d-pad axes
	constant               // mask written as is
)

type field struct {
	offset int
	axis   controller.Axis
	rule   rule
	mask   byte
}

// layout is a table-driven Builder.
type layout struct {
	family controller.Family
	size   int
	fields []field
}

func (l *layout) Build(axes Axes) Report {
	b := make([]byte, l.size)
	for _, f := range l.fields {
		v := int(axes[f.axis])
		switch f.rule {
		case stick8:
			if v < 0 {
				b[f.offset] = byte(128 + v*128/100)
			} else {
				b[f.offset] = byte(128 + v*127/100)
			}
		case stick16:
			binary.LittleEndian.PutUint16(b[f.offset:], uint16(int16(v*32767/100)))
		case stick16Inv:
			binary.LittleEndian.PutUint16(b[f.offset:], uint16(int16(-v*32767/100)))
		case motion10:
			n := 512 + v*511/100
			if v < 0 {
				n = 512 + v*512/100
			}
			binary.BigEndian.PutUint16(b[f.offset:], uint16(n))
		case pressure8:
			b[f.offset] = byte(v * 255 / 100)
		case trigger10:
			binary.LittleEndian.PutUint16(b[f.offset:], uint16(v*1023/100))
		case bit:
			if v > 0 {
				b[f.offset] |= f.mask
			}
		case percent:
			b[f.offset] = byte(int8(v))
		case hat:
			b[f.offset] = b[f.offset]&0xF0 | hatValue(axes)
		case constant:
			b[f.offset] = f.mask
		}
	}
	return Report{Family: l.family, Payload: b}
}

// hatValue encodes the d-pad clockwise from north, 8 when released.
func hatValue(axes Axes) byte {
	up, right := axes[controller.Up] > 0, axes[controller.Right] > 0
	down, left := axes[controller.Down] > 0, axes[controller.Left] > 0
	switch {
	case up && right:
		return 1
	case right && down:
		return 3
	case down && left:
		return 5
	case left && up:
		return 7
	case up:
		return 0
	case right:
		return 2
	case down:
		return 4
	case left:
		return 6
	}
	return 8
}

var layouts = map[controller.Family]*layout{
	controller.Joystick: {
		family: controller.Joystick,
		size:   11,
		fields: []field{
			{0, controller.LStickX, stick16, 0},
			{2, controller.LStickY, stick16, 0},
			{4, controller.RStickX, stick16, 0},
			{6, controller.RStickY, stick16, 0},
			{8, controller.Square, bit, 0x01},
			{8, controller.Cross, bit, 0x02},
			{8, controller.Circle, bit, 0x04},
			{8, controller.Triangle, bit, 0x08},
			{8, controller.L1, bit, 0x10},
			{8, controller.R1, bit, 0x20},
			{8, controller.L2, bit, 0x40},
			{8, controller.R2, bit, 0x80},
			{9, controller.Select, bit, 0x01},
			{9, controller.Start, bit, 0x02},
			{9, controller.L3, bit, 0x04},
			{9, controller.R3, bit, 0x08},
			{9, controller.PS, bit, 0x10},
			{10, 0, hat, 0},
		},
	},
	controller.DS3: {
		family: controller.DS3,
		size:   49,
		fields: []field{
			{0, 0, constant, 0x01},
			{2, controller.Select, bit, 0x01},
			{2, controller.L3, bit, 0x02},
			{2, controller.R3, bit, 0x04},
			{2, controller.Start, bit, 0x08},
			{2, controller.Up, bit, 0x10},
			{2, controller.Right, bit, 0x20},
			{2, controller.Down, bit, 0x40},
			{2, controller.Left, bit, 0x80},
			{3, controller.L2, bit, 0x01},
			{3, controller.R2, bit, 0x02},
			{3, controller.L1, bit, 0x04},
			{3, controller.R1, bit, 0x08},
			{3, controller.Triangle, bit, 0x10},
			{3, controller.Circle, bit, 0x20},
			{3, controller.Cross, bit, 0x40},
			{3, controller.Square, bit, 0x80},
			{4, controller.PS, bit, 0x01},
			{6, controller.LStickX, stick8, 0},
			{7, controller.LStickY, stick8, 0},
			{8, controller.RStickX, stick8, 0},
			{9, controller.RStickY, stick8, 0},
			{14, controller.Up, pressure8, 0},
			{15, controller.Right, pressure8, 0},
			{16, controller.Down, pressure8, 0},
			{17, controller.Left, pressure8, 0},
			{18, controller.L2, pressure8, 0},
			{19, controller.R2, pressure8, 0},
			{20, controller.L1, pressure8, 0},
			{21, controller.R1, pressure8, 0},
			{22, controller.Triangle, pressure8, 0},
			{23, controller.Circle, pressure8, 0},
			{24, controller.Cross, pressure8, 0},
			{25, controller.Square, pressure8, 0},
			{40, controller.AccX, motion10, 0},
			{42, controller.AccY, motion10, 0},
			{44, controller.AccZ, motion10, 0},
			{46, controller.Gyro, motion10, 0},
		},
	},
	controller.DS4: {
		family: controller.DS4,
		size:   64,
		fields: []field{
			{0, 0, constant, 0x01},
			{1, controller.LStickX, stick8, 0},
			{2, controller.LStickY, stick8, 0},
			{3, controller.RStickX, stick8, 0},
			{4, controller.RStickY, stick8, 0},
			{5, 0, hat, 0},
			{5, controller.Square, bit, 0x10},
			{5, controller.Cross, bit, 0x20},
			{5, controller.Circle, bit, 0x40},
			{5, controller.Triangle, bit, 0x80},
			{6, controller.L1, bit, 0x01},
			{6, controller.R1, bit, 0x02},
			{6, controller.L2, bit, 0x04},
			{6, controller.R2, bit, 0x08},
			{6, controller.Select, bit, 0x10},
			{6, controller.Start, bit, 0x20},
			{6, controller.L3, bit, 0x40},
			{6, controller.R3, bit, 0x80},
			{7, controller.PS, bit, 0x01},
			{7, controller.Touchpad, bit, 0x02},
			{8, controller.L2, pressure8, 0},
			{9, controller.R2, pressure8, 0},
			{13, controller.Gyro, stick16, 0},
			{19, controller.AccX, stick16, 0},
			{21, controller.AccY, stick16, 0},
			{23, controller.AccZ, stick16, 0},
		},
	},
	controller.X360: {
		family: controller.X360,
		size:   20,
		fields: []field{
			{0, 0, constant, 0x00},
			{1, 0, constant, 0x14},
			{2, controller.Up, bit, 0x01},
			{2, controller.Down, bit, 0x02},
			{2, controller.Left, bit, 0x04},
			{2, controller.Right, bit, 0x08},
			{2, controller.Start, bit, 0x10},
			{2, controller.Select, bit, 0x20},
			{2, controller.L3, bit, 0x40},
			{2, controller.R3, bit, 0x80},
			{3, controller.L1, bit, 0x01},
			{3, controller.R1, bit, 0x02},
			{3, controller.PS, bit, 0x04},
			{3, controller.Cross, bit, 0x10},
			{3, controller.Circle, bit, 0x20},
			{3, controller.Square, bit, 0x40},
			{3, controller.Triangle, bit, 0x80},
			{4, controller.L2, pressure8, 0},
			{5, controller.R2, pressure8, 0},
			{6, controller.LStickX, stick16, 0},
			{8, controller.LStickY, stick16Inv, 0},
			{10, controller.RStickX, stick16, 0},
			{12, controller.RStickY, stick16Inv, 0},
		},
	},
	controller.XOne: {
		family: controller.XOne,
		size:   18,
		fields: []field{
			{0, 0, constant, 0x20},
			{3, 0, constant, 0x0e},
			{4, controller.Start, bit, 0x04},
			{4, controller.Select, bit, 0x08},
			{4, controller.Cross, bit, 0x10},
			{4, controller.Circle, bit, 0x20},
			{4, controller.Square, bit, 0x40},
			{4, controller.Triangle, bit, 0x80},
			{5, controller.Up, bit, 0x01},
			{5, controller.Down, bit, 0x02},
			{5, controller.Left, bit, 0x04},
			{5, controller.Right, bit, 0x08},
			{5, controller.L1, bit, 0x10},
			{5, controller.R1, bit, 0x20},
			{5, controller.L3, bit, 0x40},
			{5, controller.R3, bit, 0x80},
			{6, controller.L2, trigger10, 0},
			{8, controller.R2, trigger10, 0},
			{10, controller.LStickX, stick16, 0},
			{12, controller.LStickY, stick16Inv, 0},
			{14, controller.RStickX, stick16, 0},
			{16, controller.RStickY, stick16Inv, 0},
		},
	},
	// GPP adapters take one signed percentage per input.
	controller.GPP: {
		family: controller.GPP,
		size:   36,
		fields: []field{
			{0, controller.PS, percent, 0},
			{1, controller.Select, percent, 0},
			{2, controller.Start, percent, 0},
			{3, controller.R1, percent, 0},
			{4, controller.R2, percent, 0},
			{5, controller.R3, percent, 0},
			{6, controller.L1, percent, 0},
			{7, controller.L2, percent, 0},
			{8, controller.L3, percent, 0},
			{9, controller.RStickX, percent, 0},
			{10, controller.RStickY, percent, 0},
			{11, controller.LStickX, percent, 0},
			{12, controller.LStickY, percent, 0},
			{13, controller.Up, percent, 0},
			{14, controller.Down, percent, 0},
			{15, controller.Left, percent, 0},
			{16, controller.Right, percent, 0},
			{17, controller.Triangle, percent, 0},
			{18, controller.Circle, percent, 0},
			{19, controller.Cross, percent, 0},
			{20, controller.Square, percent, 0},
			{21, controller.AccX, percent, 0},
			{22, controller.AccY, percent, 0},
			{23, controller.AccZ, percent, 0},
			{24, controller.Gyro, percent, 0},
			{27, controller.Touchpad, percent, 0},
		},
	},
}
