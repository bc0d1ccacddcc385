package monitor

import (
	"math"
	"reflect"
	"testing"
)

func TestRingEviction(t *testing.T) {
	r := NewRing(5)
	for _, v := range []float64{10, 20, 30, 40, 50, 60} {
		r.Push(v)
	}

	want := []float64{20, 30, 40, 50, 60}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
}

func TestRingPartialFill(t *testing.T) {
	r := NewRing(10)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	want := []float64{1, 2, 3}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if r.Last() != 3 {
		t.Errorf("Last() = %v, want 3", r.Last())
	}
}

func TestRingStats(t *testing.T) {
	r := NewRing(3)
	if r.Last() != 0 || r.Avg() != 0 || r.Peak() != 0 {
		t.Errorf("empty ring stats should all be zero")
	}

	r.Push(5)
	r.Push(9)
	r.Push(1)
	if r.Peak() != 9 {
		t.Errorf("Peak() = %v, want 9", r.Peak())
	}
	if got := r.Avg(); math.Abs(got-5) > 1e-9 {
		t.Errorf("Avg() = %v, want 5", got)
	}

	// 覆盖峰值后重新计算
	r.Push(2) // evicts 5
	r.Push(3) // evicts 9, the peak
	if r.Peak() != 3 {
		t.Errorf("Peak() after evicting old peak = %v, want 3", r.Peak())
	}
	if r.Last() != 3 {
		t.Errorf("Last() = %v, want 3", r.Last())
	}
}

func TestRingResizeShrink(t *testing.T) {
	r := NewRing(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.Push(v)
	}

	r.Resize(3)
	want := []float64{3, 4, 5}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() after shrink = %v, want %v", got, want)
	}
	if r.Cap() != 3 {
		t.Errorf("Cap() = %d, want 3", r.Cap())
	}
	if r.Peak() != 5 {
		t.Errorf("Peak() after shrink = %v, want 5", r.Peak())
	}
}

func TestRingResizeGrow(t *testing.T) {
	r := NewRing(2)
	r.Push(7)
	r.Push(8)

	r.Resize(4)
	want := []float64{7, 8}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() after grow = %v, want %v", got, want)
	}

	r.Push(9)
	r.Push(10)
	want = []float64{7, 8, 9, 10}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() after refill = %v, want %v", got, want)
	}
}
