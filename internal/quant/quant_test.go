package quant

import "testing"

func TestQuantizeDequantizeBounds(t *testing.T) {
	qs := []int32{1, 2, 3, 4, 7, 16}
	vals := []int32{0, 1, -1, 100, -100, 12345, -12345}

	for _, q := range qs {
		for _, v := range vals {
			qv := make([]int32, 1)
			Quantize(qv, []int32{v}, q)
			dv := make([]int32, 1)
			Dequantize(dv, qv, q)
			lo, hi := DequantizeBounds(v, q)
			if dv[0] < lo || dv[0] > hi {
				t.Errorf("q=%d v=%d: dequantized %d outside [%d,%d]", q, v, dv[0], lo, hi)
			}
		}
	}
}

func TestQuantizeQOne(t *testing.T) {
	src := []int32{1, -2, 3, -4}
	dst := make([]int32, len(src))
	Quantize(dst, src, 1)
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("index %d = %d, want %d (Q=1 passthrough)", i, dst[i], src[i])
		}
	}
}

func TestCompandMonotone(t *testing.T) {
	prev := Compand(-ExpandedMax)
	for x := int32(-ExpandedMax + 1); x <= ExpandedMax; x++ {
		cur := Compand(x)
		if cur < prev {
			t.Fatalf("Compand not monotone at x=%d: %d < %d", x, cur, prev)
		}
		prev = cur
	}
}

func TestCompandZero(t *testing.T) {
	if Compand(0) != 0 {
		t.Errorf("Compand(0) = %d, want 0", Compand(0))
	}
	if Expand(0) != 0 {
		t.Errorf("Expand(0) = %d, want 0", Expand(0))
	}
}

func TestExpandInverseErrorBound(t *testing.T) {
	for x := int32(-Threshold); x <= Threshold; x += 7 {
		y := Compand(x)
		got := Expand(y)
		if diff := got - x; diff < -1 || diff > 1 {
			t.Errorf("Expand(Compand(%d)) = %d, error %d exceeds 1", x, got, diff)
		}
	}
}

func TestPeaksTableRecord(t *testing.T) {
	var pt PeaksTable
	const limit = 100
	if pt.Record(0, 50, limit) {
		t.Error("50 should be within limit, not recorded as peak")
	}
	if !pt.Record(1, 150, limit) {
		t.Error("150 exceeds limit, should be recorded as peak")
	}
	if len(pt.Peaks) != 1 || pt.Peaks[0].Value != 150 {
		t.Errorf("peaks = %+v, want single entry with value 150", pt.Peaks)
	}
}

func TestClip(t *testing.T) {
	if got := Clip(500, 100); got != 100 {
		t.Errorf("Clip(500,100) = %d, want 100", got)
	}
	if got := Clip(-500, 100); got != -100 {
		t.Errorf("Clip(-500,100) = %d, want -100", got)
	}
	if got := Clip(50, 100); got != 50 {
		t.Errorf("Clip(50,100) = %d, want 50", got)
	}
}
