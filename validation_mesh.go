package gltfio

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

type attributeRule struct {
	types      []AccessorType
	components []ComponentType
}

// Allowed accessor layouts per vertex attribute semantic. Indexed
// semantics (TEXCOORD_n, COLOR_n, JOINTS_n, WEIGHTS_n) are keyed without
// the set index.
var attributeRules = map[string]attributeRule{
	"POSITION": {[]AccessorType{VEC3}, []ComponentType{FLOAT}},
	"NORMAL":   {[]AccessorType{VEC3}, []ComponentType{FLOAT}},
	"TANGENT":  {[]AccessorType{VEC4}, []ComponentType{FLOAT}},
	"TEXCOORD": {[]AccessorType{VEC2}, []ComponentType{FLOAT, UNSIGNED_BYTE, UNSIGNED_SHORT}},
	"COLOR":    {[]AccessorType{VEC3, VEC4}, []ComponentType{FLOAT, UNSIGNED_BYTE, UNSIGNED_SHORT}},
	"JOINTS":   {[]AccessorType{VEC4}, []ComponentType{UNSIGNED_BYTE, UNSIGNED_SHORT}},
	"WEIGHTS":  {[]AccessorType{VEC4}, []ComponentType{FLOAT, UNSIGNED_BYTE, UNSIGNED_SHORT}},
}

// lookupAttributeRule resolves "TEXCOORD_1" to the TEXCOORD rule. Custom
// and unknown semantics have no rule.
func lookupAttributeRule(name string) (attributeRule, bool) {
	switch name {
	case "TEXCOORD", "COLOR", "JOINTS", "WEIGHTS":
		return attributeRule{}, false
	}
	if r, ok := attributeRules[name]; ok {
		return r, true
	}
	i := strings.LastIndexByte(name, '_')
	if i <= 0 {
		return attributeRule{}, false
	}
	if _, err := strconv.ParseUint(name[i+1:], 10, 32); err != nil {
		return attributeRule{}, false
	}
	switch base := name[:i]; base {
	case "TEXCOORD", "COLOR", "JOINTS", "WEIGHTS":
		return attributeRules[base], true
	}
	return attributeRule{}, false
}

// ValidateMeshPrimitiveAttributeAccessors checks every attribute accessor
// against the allowed layouts for its semantic and against vertexCount.
func ValidateMeshPrimitiveAttributeAccessors(doc *Document, attributes map[string]string, vertexCount uint64) error {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		acc, err := doc.Accessors.Get(attributes[name])
		if err != nil {
			return err
		}
		if rule, ok := lookupAttributeRule(name); ok {
			if !slices.Contains(rule.types, acc.Type) {
				return dataErr("mesh.attribute_type", "attribute %s accessor %q has type %s", name, acc.ID, acc.Type)
			}
			if !slices.Contains(rule.components, acc.ComponentType) {
				return dataErr("mesh.attribute_component_type", "attribute %s accessor %q has componentType %s", name, acc.ID, acc.ComponentType)
			}
		}
		if acc.Count != vertexCount {
			return dataErr("mesh.attribute_count", "attribute %s accessor %q has count %d, expected %d", name, acc.ID, acc.Count, vertexCount)
		}
	}
	return nil
}

// ValidatePrimitiveCount checks a vertex or index count against the
// topology of mode.
func ValidatePrimitiveCount(mode MeshMode, count uint64) error {
	var ok bool
	switch mode {
	case POINTS:
		ok = true
	case LINES:
		ok = count >= 2 && count%2 == 0
	case LINE_LOOP, LINE_STRIP:
		ok = count >= 2
	case TRIANGLES:
		ok = count >= 3 && count%3 == 0
	case TRIANGLE_STRIP, TRIANGLE_FAN:
		ok = count >= 3
	default:
		return dataErr("mesh.mode", "unknown primitive mode %s", mode)
	}
	if !ok {
		return dataErr("mesh.count", "%d vertices or indices is invalid for %s", count, mode)
	}
	return nil
}

// ValidateMeshPrimitive checks attributes, indices and topology of prim.
func ValidateMeshPrimitive(doc *Document, prim MeshPrimitive) error {
	posID, ok := prim.Attributes["POSITION"]
	if !ok {
		return dataErr("mesh.position", "primitive has no POSITION attribute")
	}
	pos, err := doc.Accessors.Get(posID)
	if err != nil {
		return err
	}
	if err := ValidateMeshPrimitiveAttributeAccessors(doc, prim.Attributes, pos.Count); err != nil {
		return err
	}
	if prim.IndicesID == "" {
		return ValidatePrimitiveCount(prim.Mode, pos.Count)
	}
	idx, err := doc.Accessors.Get(prim.IndicesID)
	if err != nil {
		return err
	}
	if idx.Type != SCALAR {
		return dataErr("mesh.indices_type", "indices accessor %q has type %s", idx.ID, idx.Type)
	}
	switch idx.ComponentType {
	case UNSIGNED_BYTE, UNSIGNED_SHORT, UNSIGNED_INT:
	default:
		return dataErr("mesh.indices_component_type", "indices accessor %q has componentType %s", idx.ID, idx.ComponentType)
	}
	return ValidatePrimitiveCount(prim.Mode, idx.Count)
}
