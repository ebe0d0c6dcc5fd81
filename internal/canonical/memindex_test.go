package canonical

import (
	"context"
	"math"
	"testing"
)

func TestMemIndex_NearestOnEmptyCollection(t *testing.T) {
	x := NewMemIndex()
	_, ok, err := x.Nearest(context.Background(), CollectionSkills, []float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("ok = true on empty collection")
	}
}

func TestMemIndex_AddAndNearest(t *testing.T) {
	ctx := context.Background()
	x := NewMemIndex()

	entries := []Entry{
		{Label: "Python", Vector: []float32{1, 0, 0}},
		{Label: "React", Vector: []float32{0, 1, 0}},
		{Label: "PostgreSQL", Vector: []float32{0, 0, 1}},
	}
	for _, e := range entries {
		if err := x.Add(ctx, CollectionSkills, e); err != nil {
			t.Fatal(err)
		}
	}

	m, ok, err := x.Nearest(ctx, CollectionSkills, []float32{1, 0, 0})
	if err != nil || !ok {
		t.Fatalf("Nearest: ok=%v err=%v", ok, err)
	}
	if m.Label != "Python" {
		t.Errorf("Label = %q, want Python", m.Label)
	}
	if m.Distance > 1e-6 {
		t.Errorf("Distance = %g, want 0 for identical vector", m.Distance)
	}
}

func TestMemIndex_AddReplacesByLowercaseID(t *testing.T) {
	ctx := context.Background()
	x := NewMemIndex()

	if err := x.Add(ctx, CollectionNames, Entry{Label: "Asha", Vector: []float32{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(ctx, CollectionNames, Entry{Label: "ASHA", Vector: []float32{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if n := x.Len(CollectionNames); n != 1 {
		t.Errorf("Len = %d, want 1 (case-insensitive upsert)", n)
	}
}

func TestMemIndex_RejectsUnknownCollection(t *testing.T) {
	x := NewMemIndex()
	if err := x.Add(context.Background(), Collection("bogus"), Entry{Label: "x", Vector: []float32{1}}); err == nil {
		t.Fatal("expected error for unknown collection")
	}
	if _, _, err := x.Nearest(context.Background(), Collection("bogus"), []float32{1}); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cosineDistance(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("cosineDistance = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestCosineDistance_DimensionMismatch(t *testing.T) {
	if _, err := cosineDistance([]float32{1, 0}, []float32{1}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestCollection_IsValid(t *testing.T) {
	for _, c := range Collections() {
		if !c.IsValid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Collection("resume").IsValid() {
		t.Error("unknown collection reported valid")
	}
	if len(Collections()) != 4 {
		t.Errorf("Collections() = %v, want 4 entries", Collections())
	}
}
