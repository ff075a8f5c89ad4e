package gltfio

import (
	"gonum.org/v1/gonum/floats"
)

// ComponentToFloat converts one component value to float32. With
// normalized set, integer values are mapped to [0, 1] (unsigned) or
// [-1, 1] (signed) as glTF defines.
func ComponentToFloat[T Component](v T, normalized bool) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case int8:
		if normalized {
			return max(float32(x)/127, -1)
		}
		return float32(x)
	case uint8:
		if normalized {
			return float32(x) / 255
		}
		return float32(x)
	case int16:
		if normalized {
			return max(float32(x)/32767, -1)
		}
		return float32(x)
	case uint16:
		if normalized {
			return float32(x) / 65535
		}
		return float32(x)
	case uint32:
		if normalized {
			return float32(float64(x) / 4294967295)
		}
		return float32(x)
	}
	return 0
}

// CalculateMinMax returns the per-component minimum and maximum of data,
// laid out as acc.Type elements. These are the values glTF expects in
// accessor.min and accessor.max.
func CalculateMinMax[T Component](acc Accessor, data []T) (minValues, maxValues []float64, err error) {
	cc := int(acc.Type.ComponentCount())
	if cc == 0 {
		return nil, nil, dataErr("accessor.type", "accessor %q has unknown type %d", acc.ID, uint32(acc.Type))
	}
	if len(data) == 0 || len(data)%cc != 0 {
		return nil, nil, contractErr("accessor.data_size", "%d values do not form whole %s elements", len(data), acc.Type)
	}
	n := len(data) / cc
	column := make([]float64, n)
	minValues = make([]float64, cc)
	maxValues = make([]float64, cc)
	for k := 0; k < cc; k++ {
		for i := 0; i < n; i++ {
			column[i] = float64(data[i*cc+k])
		}
		minValues[k] = floats.Min(column)
		maxValues[k] = floats.Max(column)
	}
	return minValues, maxValues, nil
}
