//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(1, 10)
		if v < 1 || v > 10 {
			t.Errorf("Int(1, 10) = %d, out of range", v)
		}
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		p := f.Price(10, 2000)
		if p < 10 || p > 2000 {
			t.Errorf("Price(10, 2000) = %v, out of range", p)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("DateRange returned %v, outside [%v, %v]", d, start, end)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(1)
	items := []string{"a", "b", "c"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v := Choose(f, items)
		if v != "a" && v != "b" && v != "c" {
			t.Fatalf("Choose returned unexpected value %q", v)
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Errorf("Choose over 100 draws hit %d of 3 items", len(seen))
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	if v := Choose(f, []string{}); v != "" {
		t.Errorf("Choose on empty slice = %q, want zero value", v)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []float64{0, 0.05, 0.10}
	weights := []int{8, 1, 1}

	counts := make(map[float64]int)
	for i := 0; i < 1000; i++ {
		counts[ChooseWeighted(f, items, weights)]++
	}

	if counts[0] < counts[0.05] || counts[0] < counts[0.10] {
		t.Errorf("weight 8 item drawn %d times, weight 1 items %d and %d",
			counts[0], counts[0.05], counts[0.10])
	}
}
