package feature

import (
	"math"
	"testing"
)

func isNaN(v float64) bool { return math.IsNaN(v) }

func TestRollingMeanNullUntilMinPeriods(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5}
	got := RollingMean(src, 3, 3)

	for i := 0; i < 2; i++ {
		if !isNaN(got[i]) {
			t.Fatalf("index %d: expected null, got %v", i, got[i])
		}
	}
	want := []float64{0, 0, 2, 3, 4}
	for i := 2; i < len(src); i++ {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestRollingMaxWindow(t *testing.T) {
	src := []float64{10, 11, 12, 13, 14}
	got := RollingMax(src, 5, 5)
	for i := 0; i < 4; i++ {
		if !isNaN(got[i]) {
			t.Fatalf("index %d: expected null before window fills, got %v", i, got[i])
		}
	}
	if got[4] != 14 {
		t.Fatalf("expected rolling max 14 at index 4, got %v", got[4])
	}
}

func TestNPeriodHigh(t *testing.T) {
	close := []float64{10, 11, 12, 13, 14}
	rollingMax := RollingMax(close, 5, 5)
	got := NPeriodHigh(close, rollingMax)

	for i := 0; i < 4; i++ {
		if !isNaN(got[i]) {
			t.Fatalf("index %d: expected null while rolling max is null, got %v", i, got[i])
		}
	}
	if got[4] != 1 {
		t.Fatalf("expected true (1) at index 4 where close equals the rolling max, got %v", got[4])
	}
}

func TestShiftPositiveLag(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	got := Shift(src, 2)
	if !isNaN(got[0]) || !isNaN(got[1]) {
		t.Fatalf("expected leading nulls, got %v", got)
	}
	if got[2] != 1 || got[3] != 2 {
		t.Fatalf("expected lagged values, got %v", got)
	}
}

func TestShiftNegativeLead(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	got := Shift(src, -1)
	if got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("expected leading values, got %v", got)
	}
	if !isNaN(got[3]) {
		t.Fatalf("expected trailing null, got %v", got[3])
	}
}

func TestPctChange(t *testing.T) {
	src := []float64{100, 110, 121}
	got := PctChange(src, 1, 0)
	if !isNaN(got[0]) {
		t.Fatalf("expected null at index 0, got %v", got[0])
	}
	if math.Abs(got[1]-0.10) > 1e-9 {
		t.Fatalf("expected 0.10 pct change, got %v", got[1])
	}
}

func TestRSIBounds(t *testing.T) {
	close := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03}
	got := RSI(close, 5)
	for i, v := range got {
		if isNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("index %d: RSI out of [0,100] range: %v", i, v)
		}
	}
}

func TestDiffScoreNonNullOnceWindowFills(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{5, 4, 3, 2, 1}
	got := DiffScore(x, y, 3, 3)
	for i := 2; i < len(x); i++ {
		if isNaN(got[i]) {
			t.Fatalf("index %d: expected non-null DiffScore once window fills", i)
		}
	}
}

func TestEWMMeanMonotoneApproach(t *testing.T) {
	src := []float64{10, 10, 10, 10}
	got := EWMMean(src, 0.5)
	for i, v := range got {
		if math.Abs(v-10) > 1e-9 {
			t.Fatalf("index %d: constant input should converge to itself, got %v", i, v)
		}
	}
}
