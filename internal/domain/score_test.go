package domain

import (
	"math"
	"testing"
)

func TestOffsetCodec_RoundTrip(t *testing.T) {
	codec := OffsetCodec{}
	for s := -1.0; s <= 1.0; s += 0.001 {
		raw := codec.Encode(s)
		if raw < 0 {
			t.Fatalf("Encode(%f) = %f, raw scores must be non-negative", s, raw)
		}
		got := codec.Decode(raw)
		if math.Abs(got-s) > 1e-9 {
			t.Fatalf("round trip of %f returned %f", s, got)
		}
	}
}

func TestOffsetCodec_Bounds(t *testing.T) {
	codec := OffsetCodec{}
	if got := codec.Encode(-1); got != 0 {
		t.Errorf("Encode(-1) = %f, want 0", got)
	}
	if got := codec.Encode(1); got != 2 {
		t.Errorf("Encode(1) = %f, want 2", got)
	}
	if got := codec.Decode(1.7); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Decode(1.7) = %f, want 0.7", got)
	}
}

func TestIdentityCodec(t *testing.T) {
	codec := IdentityCodec{}
	for _, s := range []float64{-1, -0.5, 0, 0.7, 1} {
		if codec.Encode(s) != s || codec.Decode(s) != s {
			t.Errorf("identity codec changed %f", s)
		}
	}
}
