package dispatch

// HatEdge is a button edge derived from a hat change.
type HatEdge struct {
	Code    int
	Pressed bool
}

// DecomposeHat compares two hat bitmasks and returns an edge for every
// direction bit that changed. Hat directions are numbered after the
// joystick's real buttons: base + 4*hat + bit.
func DecomposeHat(prev, cur uint8, base, hat int) []HatEdge {
	changed := (prev ^ cur) & 0x0F
	if changed == 0 {
		return nil
	}
	var edges []HatEdge
	for bit := range 4 {
		mask := uint8(1) << bit
		if changed&mask == 0 {
			continue
		}
		edges = append(edges, HatEdge{
			Code:    base + 4*hat + bit,
			Pressed: cur&mask != 0,
		})
	}
	return edges
}
