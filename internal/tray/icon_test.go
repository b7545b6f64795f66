package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
)

func TestIconPNG(t *testing.T) {
	data, err := iconPNG()
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != iconSize || b.Dy() != iconSize {
		t.Errorf("bounds = %v", b)
	}
}

func TestWrapICO(t *testing.T) {
	data := []byte{1, 2, 3}
	ico := wrapICO(data, 32)
	if len(ico) != 22+len(data) {
		t.Fatalf("len = %d", len(ico))
	}
	if binary.LittleEndian.Uint16(ico[2:]) != 1 || binary.LittleEndian.Uint16(ico[4:]) != 1 {
		t.Errorf("header = %v", ico[:6])
	}
	if ico[6] != 32 || binary.LittleEndian.Uint32(ico[14:]) != 3 || binary.LittleEndian.Uint32(ico[18:]) != 22 {
		t.Errorf("entry = %v", ico[6:22])
	}
	if !bytes.Equal(ico[22:], data) {
		t.Errorf("payload = %v", ico[22:])
	}
}
