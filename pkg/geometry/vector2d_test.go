package geometry

import (
	"math"
	"testing"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNewVectorPolar(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		theta  float64
		want   Vector2D
	}{
		{"Zero radius", 0, 0, Vector2D{0, 0}},
		{"Zero angle (X-axis)", 10, 0, Vector2D{10, 0}},
		{"90 degrees (Y-axis)", 10, math.Pi / 2, Vector2D{0, 10}},
		{"180 degrees (Negative X)", 10, math.Pi, Vector2D{-10, 0}},
		{"45 degrees", math.Sqrt(2), math.Pi / 4, Vector2D{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewVectorPolar(tt.radius, tt.theta)
			if !got.Eq(tt.want) {
				t.Errorf("NewVectorPolar(%v, %v) = %v; want %v", tt.radius, tt.theta, got, tt.want)
			}
		})
	}
}

func TestVector_String(t *testing.T) {
	v := Vector2D{1.234, 5.678}
	want := "(1.23, 5.68)" // Expecting rounding to 2 decimals based on implementation
	if got := v.String(); got != want {
		t.Errorf("Vector2D.String() = %q; want %q", got, want)
	}
}

func TestVector_Arithmetic(t *testing.T) {
	v1 := Vector2D{1, 2}
	v2 := Vector2D{3, 4}

	t.Run("Add", func(t *testing.T) {
		want := Vector2D{4, 6}
		if got := v1.Add(v2); !got.Eq(want) {
			t.Errorf("%v.Add(%v) = %v; want %v", v1, v2, got, want)
		}
	})

	t.Run("Sub", func(t *testing.T) {
		want := Vector2D{-2, -2}
		if got := v1.Sub(v2); !got.Eq(want) {
			t.Errorf("%v.Sub(%v) = %v; want %v", v1, v2, got, want)
		}
	})

	t.Run("Mul", func(t *testing.T) {
		want := Vector2D{2, 4}
		if got := v1.Mul(2); !got.Eq(want) {
			t.Errorf("%v.Mul(2) = %v; want %v", v1, got, want)
		}
	})

	t.Run("Dot", func(t *testing.T) {
		want := 11.0
		if got := v1.Dot(v2); !floatEquals(got, want) {
			t.Errorf("%v.Dot(%v) = %v; want %v", v1, v2, got, want)
		}
	})
}

func TestVector_Normalize(t *testing.T) {
	t.Run("Unit length", func(t *testing.T) {
		v := Vector2D{3, 4}
		got := v.Normalize()
		if !floatEquals(got.Len(), 1) {
			t.Errorf("Normalize().Len() = %v; want 1", got.Len())
		}
		want := Vector2D{0.6, 0.8}
		if !got.Eq(want) {
			t.Errorf("%v.Normalize() = %v; want %v", v, got, want)
		}
	})

	t.Run("Zero vector stays zero", func(t *testing.T) {
		v := Vector2D{}
		got := v.Normalize()
		if !got.Eq(Vector2D{}) {
			t.Errorf("zero.Normalize() = %v; want (0, 0)", got)
		}
		if !got.IsFinite() {
			t.Errorf("zero.Normalize() produced non-finite components: %v", got)
		}
	})
}

func TestVector_Limit(t *testing.T) {
	tests := []struct {
		name    string
		v       Vector2D
		max     float64
		wantLen float64
	}{
		{"Under the cap is untouched", Vector2D{1, 0}, 5, 1},
		{"Over the cap is scaled down", Vector2D{30, 40}, 5, 5},
		{"Exactly at the cap is untouched", Vector2D{3, 4}, 5, 5},
		{"Zero max yields zero", Vector2D{3, 4}, 0, 0},
		{"Zero vector stays zero", Vector2D{}, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Limit(tt.max)
			if !floatEquals(got.Len(), tt.wantLen) {
				t.Errorf("%v.Limit(%v).Len() = %v; want %v", tt.v, tt.max, got.Len(), tt.wantLen)
			}
			// Direction must be preserved when the result is non-zero.
			if got.Len() > Epsilon {
				if !got.Normalize().Eq(tt.v.Normalize()) {
					t.Errorf("%v.Limit(%v) changed direction: got %v", tt.v, tt.max, got)
				}
			}
		})
	}
}

func TestVector_Distances(t *testing.T) {
	a := Vector2D{0, 0}
	b := Vector2D{3, 4}

	if got := a.DistanceTo(b); !floatEquals(got, 5) {
		t.Errorf("DistanceTo = %v; want 5", got)
	}
	if got := a.DistanceSquaredTo(b); !floatEquals(got, 25) {
		t.Errorf("DistanceSquaredTo = %v; want 25", got)
	}
}

func TestVector_Lerp(t *testing.T) {
	a := Vector2D{0, 0}
	b := Vector2D{10, 20}

	if got := a.Lerp(b, 0); !got.Eq(a) {
		t.Errorf("Lerp(0) = %v; want %v", got, a)
	}
	if got := a.Lerp(b, 1); !got.Eq(b) {
		t.Errorf("Lerp(1) = %v; want %v", got, b)
	}
	if got := a.Lerp(b, 0.5); !got.Eq(Vector2D{5, 10}) {
		t.Errorf("Lerp(0.5) = %v; want (5, 10)", got)
	}
}

func TestVector_IsFinite(t *testing.T) {
	if !(Vector2D{1, 2}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vector2D{math.NaN(), 0}).IsFinite() {
		t.Error("NaN component reported as finite")
	}
	if (Vector2D{0, math.Inf(1)}).IsFinite() {
		t.Error("Inf component reported as finite")
	}
}
