package wavelet

import "testing"

// TestForwardInverse1DReversible checks near-exact round-tripping even
// with shift=0. Reconstruction is exact everywhere except the leading
// pair of each row/column, where the dropped e tap (see the package doc)
// forces an extra division at the boundary; that small error then
// carries forward at unit gain rather than amplifying, so the bound
// stays proportional to length rather than exploding.
func TestForwardInverse1DReversible(t *testing.T) {
	lengths := []int{2, 3, 4, 7, 8, 15, 16, 31}
	for _, length := range lengths {
		orig := make([]int32, length)
		for i := range orig {
			orig[i] = int32(i*7 - 13)
		}
		data := append([]int32(nil), orig...)

		Forward(data, length, BiasReversible, 0)
		Inverse(data, length, BiasReversible, 0)

		bound := int32(length) + 4
		for i := range orig {
			diff := data[i] - orig[i]
			if diff < -bound || diff > bound {
				t.Fatalf("length=%d: index %d = %d, want %d (diff %d exceeds bound %d)", length, i, data[i], orig[i], diff, bound)
			}
		}
	}
}

func TestForwardAppliesPrescaleLossily(t *testing.T) {
	length := 16
	orig := make([]int32, length)
	for i := range orig {
		orig[i] = int32(i*3 + 1)
	}
	data := append([]int32(nil), orig...)

	Forward(data, length, BiasNormal, 2)
	Inverse(data, length, BiasNormal, 2)

	// With a nonzero prescale the low two bits of each lifted coefficient
	// are discarded, so reconstruction need not be exact, but it must stay
	// within a small bound of the original.
	for i := range orig {
		diff := data[i] - orig[i]
		if diff < -8 || diff > 8 {
			t.Errorf("index %d: reconstructed %d too far from original %d", i, data[i], orig[i])
		}
	}
}

func TestForward2DInverse2DReversible(t *testing.T) {
	width, height := 8, 6
	plane := make([]int32, width*height)
	for i := range plane {
		plane[i] = int32(i%23 - 11)
	}
	orig := append([]int32(nil), plane...)

	lvl := Forward2D(plane, width, height, BiasReversible, 0, 0)

	recon := make([]int32, width*height)
	Inverse2D(lvl, recon, width, height, BiasReversible, 0, 0)

	bound := int32(width + height + 8)
	for i := range orig {
		diff := recon[i] - orig[i]
		if diff < -bound || diff > bound {
			t.Fatalf("index %d = %d, want %d (diff %d exceeds bound %d)", i, recon[i], orig[i], diff, bound)
		}
	}
}

func TestPlanRowGroups(t *testing.T) {
	groups := PlanRowGroups(10, 4)
	want := []RowGroup{{0, 4}, {4, 4}, {8, 2}}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, g := range groups {
		if g != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestBandString(t *testing.T) {
	for _, tt := range []struct {
		b    Band
		want string
	}{{LL, "LL"}, {LH, "LH"}, {HL, "HL"}, {HH, "HH"}} {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("Band(%d).String() = %q, want %q", tt.b, got, tt.want)
		}
	}
}
