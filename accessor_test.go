package gltfio

import (
	"slices"
	"testing"
)

func TestComponentToFloat(t *testing.T) {
	tests := []struct {
		got, want float32
	}{
		{ComponentToFloat(int8(-128), true), -1},
		{ComponentToFloat(int8(-127), true), -1},
		{ComponentToFloat(int8(-128), false), -128},
		{ComponentToFloat(uint8(51), true), 0.2},
		{ComponentToFloat(int16(32767), true), 1},
		{ComponentToFloat(int16(-32768), true), -1},
		{ComponentToFloat(uint16(0), true), 0},
		{ComponentToFloat(uint32(4294967295), true), 1},
		{ComponentToFloat(float32(2.5), true), 2.5},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%d: got %v, want %v", i, tt.got, tt.want)
		}
	}
}

func TestCalculateMinMax(t *testing.T) {
	acc := Accessor{ID: "pos", Type: VEC3}
	lo, hi, err := CalculateMinMax(acc, []float32{1, -2, 3, -4, 5, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(lo, []float64{-4, -2, 0.5}) || !slices.Equal(hi, []float64{1, 5, 3}) {
		t.Fatalf("got %v %v", lo, hi)
	}

	_, _, err = CalculateMinMax(acc, []float32{1, 2})
	expectRule(t, err, ErrContract, "accessor.data_size")
	_, _, err = CalculateMinMax(Accessor{}, []uint8{1})
	expectRule(t, err, ErrData, "accessor.type")
}
