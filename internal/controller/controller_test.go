package controller

import (
	"errors"
	"testing"
)

func TestParseAxis(t *testing.T) {
	tests := []struct {
		name string
		want AxisRef
	}{
		{"lstick x", AxisRef{LStickX, Centered}},
		{"LSTICK Y-", AxisRef{LStickY, Negative}},
		{"rstick x+", AxisRef{RStickX, Positive}},
		{"rel_axis_3", AxisRef{RStickY, Centered}},
		{"rel_axis_1-", AxisRef{LStickY, Negative}},
		{"abs_axis_0", AxisRef{Select, Centered}},
		{"abs_axis_17", AxisRef{Touchpad, Centered}},
		{"cross", AxisRef{Cross, Centered}},
		{"PS", AxisRef{PS, Centered}},
	}
	for _, tt := range tests {
		got, err := ParseAxis(tt.name)
		if err != nil {
			t.Errorf("ParseAxis(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAxis(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseAxisRejects(t *testing.T) {
	for _, name := range []string{"", "stick", "rel_axis_8", "abs_axis_18", "cross-", "abs_axis_x"} {
		if _, err := ParseAxis(name); !errors.Is(err, ErrUnknownAxis) {
			t.Errorf("ParseAxis(%q) error = %v, want ErrUnknownAxis", name, err)
		}
	}
}

func TestIndexTranslation(t *testing.T) {
	if i, err := ControllerIndex(1); err != nil || i != 0 {
		t.Errorf("ControllerIndex(1) = %d, %v", i, err)
	}
	if i, err := ControllerIndex(MaxControllers); err != nil || i != MaxControllers-1 {
		t.Errorf("ControllerIndex(max) = %d, %v", i, err)
	}
	for _, id := range []int{0, -1, MaxControllers + 1} {
		if _, err := ControllerIndex(id); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ControllerIndex(%d) error = %v", id, err)
		}
	}
	if i, err := ConfigIndex(MaxConfigurations); err != nil || i != MaxConfigurations-1 {
		t.Errorf("ConfigIndex(max) = %d, %v", i, err)
	}
	if _, err := ConfigIndex(MaxConfigurations + 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ConfigIndex(max+1) error = %v", err)
	}
}

func TestParseFamily(t *testing.T) {
	tests := map[string]Family{
		"DS4":     DS4,
		"sixaxis": DS3,
		"360":     X360,
		" xone ":  XOne,
		"GPP":     GPP,
	}
	for in, want := range tests {
		got, err := ParseFamily(in)
		if err != nil || got != want {
			t.Errorf("ParseFamily(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFamily("wii"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("ParseFamily(wii) error = %v", err)
	}
}

func TestStateClamp(t *testing.T) {
	var s State
	s.Set(LStickX, -150)
	s.Set(Cross, -20)
	s.Set(R2, 130)
	if got := s.Get(LStickX); got != -100 {
		t.Errorf("LStickX = %d, want -100", got)
	}
	if got := s.Get(Cross); got != 0 {
		t.Errorf("Cross = %d, want 0", got)
	}
	if got := s.Get(R2); got != 100 {
		t.Errorf("R2 = %d, want 100", got)
	}
	s.Reset()
	if snap := s.Snapshot(); snap != [AxisMax]int32{} {
		t.Errorf("Snapshot after Reset = %v", snap)
	}
}

func TestStickPartner(t *testing.T) {
	if p, ok := StickPartner(RStickY); !ok || p != RStickX {
		t.Errorf("StickPartner(RStickY) = %v, %v", p, ok)
	}
	if _, ok := StickPartner(Cross); ok {
		t.Error("StickPartner(Cross) should not exist")
	}
}
