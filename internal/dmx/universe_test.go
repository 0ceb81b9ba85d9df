package dmx

import (
	"math"
	"testing"
)

func TestByte(t *testing.T) {
	cases := []struct {
		name string
		fr   float64
		want byte
	}{
		{"zero", 0, 0},
		{"one", 1, 255},
		{"half_truncates", 0.5, 127},
		{"below_range", -0.2, 0},
		{"above_range", 1.7, 255},
		{"nan", math.NaN(), 0},
		{"pos_inf", math.Inf(1), 255},
		{"neg_inf", math.Inf(-1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Byte(tc.fr); got != tc.want {
				t.Errorf("Byte(%v) = %d, want %d", tc.fr, got, tc.want)
			}
		})
	}
}

func TestWord(t *testing.T) {
	cases := []struct {
		fr           float64
		coarse, fine byte
	}{
		{0, 0, 0},
		{1, 255, 255},
		{0.5, 127, 255},
		{2, 255, 255},
		{math.NaN(), 0, 0},
	}
	for _, tc := range cases {
		c, f := Word(tc.fr)
		if c != tc.coarse || f != tc.fine {
			t.Errorf("Word(%v) = %d/%d, want %d/%d", tc.fr, c, f, tc.coarse, tc.fine)
		}
	}
}

func TestWord_Monotonic(t *testing.T) {
	var prev uint16
	for i := 0; i <= 1000; i++ {
		fr := float64(i) / 1000
		c, f := Word(fr)
		w := uint16(c)<<8 | uint16(f)
		if w < prev {
			t.Fatalf("Word(%v) = %d decreased from %d", fr, w, prev)
		}
		prev = w
	}
}

func TestUniverse_SetGet(t *testing.T) {
	var u Universe
	if err := u.Set(1, 10); err != nil {
		t.Fatalf("Set(1): %v", err)
	}
	if err := u.Set(512, 20); err != nil {
		t.Fatalf("Set(512): %v", err)
	}
	if u.Get(1) != 10 || u.Get(512) != 20 {
		t.Errorf("Get = %d/%d, want 10/20", u.Get(1), u.Get(512))
	}
	for _, ch := range []int{0, -1, 513} {
		if err := u.Set(ch, 1); err == nil {
			t.Errorf("Set(%d) should fail", ch)
		}
		if u.Get(ch) != 0 {
			t.Errorf("Get(%d) should be 0", ch)
		}
	}

	u.Reset()
	if u.Get(1) != 0 || u.Get(512) != 0 {
		t.Error("Reset did not clear channels")
	}
}
