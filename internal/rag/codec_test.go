package rag

import (
	"errors"
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{1, 0},
		{-0.000123, 12345.678, 3.4028235e38, 1e-45},
		{float32(math.Pi), float32(-math.E), 0},
	}

	for _, vec := range vectors {
		text, err := EncodeVector(vec)
		if err != nil {
			t.Fatalf("encode %v: %v", vec, err)
		}

		got, err := DecodeVector(text)
		if err != nil {
			t.Fatalf("decode %q: %v", text, err)
		}

		if len(got) != len(vec) {
			t.Fatalf("expected %d dims, got %d", len(vec), len(got))
		}
		for i := range vec {
			if got[i] != vec[i] {
				t.Errorf("component %d: expected %v, got %v (text %q)", i, vec[i], got[i], text)
			}
		}
	}
}

func TestEncodeVector_Format(t *testing.T) {
	text, err := EncodeVector([]float32{1, 0.5, -2})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if text != "[1,0.5,-2]" {
		t.Errorf("unexpected encoding: %s", text)
	}

	if _, err := EncodeVector(nil); err == nil {
		t.Error("should reject an empty vector")
	}
}

func TestDecodeVector_Malformed(t *testing.T) {
	inputs := []string{"", "[]", "1,2,3", "[1,2", "[1,abc,3]", "null", "[,]", "[NaN]", "[1,Inf]", "[-Inf,0]"}

	for _, in := range inputs {
		_, err := DecodeVector(in)
		if !errors.Is(err, ErrMalformedEmbedding) {
			t.Errorf("DecodeVector(%q): expected ErrMalformedEmbedding, got %v", in, err)
		}
	}
}
