package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

// Icon returns the tray icon: PNG, wrapped in an ICO container on Windows.
func Icon() ([]byte, error) {
	data, err := iconPNG()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize), nil
	}
	return data, nil
}

// iconPNG draws a pad outline with two sticks.
func iconPNG() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	body := color.NRGBA{0x30, 0x36, 0x40, 0xff}
	stick := color.NRGBA{0x4c, 0xc2, 0x7a, 0xff}
	for y := 8; y < 24; y++ {
		for x := 2; x < 30; x++ {
			img.Set(x, y, body)
		}
	}
	for _, cx := range []int{9, 22} {
		for y := 12; y < 20; y++ {
			for x := cx - 3; x <= cx+3; x++ {
				if dx, dy := x-cx, y-16; dx*dx+dy*dy <= 9 {
					img.Set(x, y, stick)
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO builds a single-image ICO holding PNG data.
func wrapICO(data []byte, size int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	binary.Write(&buf, le, [3]uint16{0, 1, 1}) // reserved, type icon, count
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0) // palette
	buf.WriteByte(0)
	binary.Write(&buf, le, [2]uint16{1, 32}) // planes, bpp
	binary.Write(&buf, le, [2]uint32{uint32(len(data)), 22})
	buf.Write(data)
	return buf.Bytes()
}
