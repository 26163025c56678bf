package vorbis

import "testing"

func TestDecouple(t *testing.T) {
	tests := []struct {
		name             string
		mag, ang         float32
		wantMag, wantAng float32
	}{
		{"both positive", 1, 0.5, 1, 0.5},
		{"negative angle", 1, -0.5, 0.5, 1},
		{"negative magnitude", -1, 0.5, -1, -0.5},
		{"both negative", -1, -0.5, -0.5, -1},
	}
	m := &mappingConfig{couplings: [][2]int{{0, 1}}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := [][]float32{{tt.mag}, {tt.ang}}
			m.decouple(frame, 1)
			if frame[0][0] != tt.wantMag || frame[1][0] != tt.wantAng {
				t.Errorf("decouple(%g, %g) = (%g, %g), want (%g, %g)",
					tt.mag, tt.ang, frame[0][0], frame[1][0], tt.wantMag, tt.wantAng)
			}
		})
	}
}

func TestUnzeroCoupled(t *testing.T) {
	m := &mappingConfig{couplings: [][2]int{{0, 1}}}

	zero := []bool{true, false, true}
	m.unzeroCoupled(zero)
	if zero[0] || zero[1] {
		t.Errorf("zero = %v, want coupled pair cleared", zero)
	}
	if !zero[2] {
		t.Error("zero[2] cleared, want untouched")
	}

	zero = []bool{true, true}
	m.unzeroCoupled(zero)
	if !zero[0] || !zero[1] {
		t.Errorf("zero = %v, want fully silent pair kept silent", zero)
	}
}
