package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(-1, 0, 3); got != 0 {
		t.Fatalf("Clamp low = %d", got)
	}
	if got := Clamp(2, 3, 0); got != 2 {
		t.Fatalf("Clamp swapped bounds = %d", got)
	}
	if !Between(4200, 3600, 4200) || Between(4201, 4200, 3600) {
		t.Fatal("Between bounds wrong")
	}
}

func TestScale(t *testing.T) {
	cases := []struct {
		mv   uint32
		want int
	}{
		{3000, 0},
		{3600, 0},
		{3900, 28},
		{4200, 56},
		{5000, 56},
	}
	for _, c := range cases {
		if got := Scale(c.mv, 3600, 4200, 56); got != c.want {
			t.Fatalf("Scale(%d) = %d, want %d", c.mv, got, c.want)
		}
	}
	if got := Fraction(1, 1, 1); got != 0 {
		t.Fatalf("degenerate range = %v, want 0", got)
	}
}
