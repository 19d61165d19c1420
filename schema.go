package sigil

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// ValueAttribute is the primary attribute slot of a marker. It is exempt from
// same-name convention overriding and carries the contained uses of a
// repeatable container.
const ValueAttribute = "value"

// Kind identifies the value type of a marker attribute.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindRef
	KindUse
	KindStrings
	KindInts
	KindFloats
	KindBools
	KindRefs
	KindUses
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindRef:     "ref",
	KindUse:     "use",
	KindStrings: "strings",
	KindInts:    "ints",
	KindFloats:  "floats",
	KindBools:   "bools",
	KindRefs:    "refs",
	KindUses:    "uses",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// ParseKind converts the textual form used in schema files back to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindsByName[s]; ok && k != KindInvalid {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("sigil: unknown kind %q", s)
}

// Slice reports whether the kind holds a list of values.
func (k Kind) Slice() bool {
	switch k {
	case KindStrings, KindInts, KindFloats, KindBools, KindRefs, KindUses:
		return true
	}
	return false
}

// Elem returns the element kind of a slice kind, KindInvalid otherwise.
func (k Kind) Elem() Kind {
	switch k {
	case KindStrings:
		return KindString
	case KindInts:
		return KindInt
	case KindFloats:
		return KindFloat
	case KindBools:
		return KindBool
	case KindRefs:
		return KindRef
	case KindUses:
		return KindUse
	}
	return KindInvalid
}

// MarshalYAML renders the kind in its textual form.
func (k Kind) MarshalYAML() (any, error) {
	if k == KindInvalid {
		return nil, fmt.Errorf("sigil: cannot marshal invalid kind")
	}
	return k.String(), nil
}

// UnmarshalYAML parses the textual form.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Ref is a reference to a marker type by name.
type Ref string

// Use is a single application of a marker, carrying explicit attribute
// values. Attributes absent from Values fall back to their declared defaults.
type Use struct {
	Marker string         `yaml:"marker" json:"marker"`
	Values map[string]any `yaml:"values,omitempty" json:"values,omitempty"`
}

// Alias declares that an attribute mirrors or overrides another attribute.
//
// Ref and Attribute are two forms of the same target name; declaring both is
// a configuration error. When neither is set the target attribute name
// defaults to the declaring attribute's own name. An empty Marker targets the
// declaring marker itself, forming a mirror pair that must be reciprocal.
type Alias struct {
	Marker    string `yaml:"marker,omitempty" json:"marker,omitempty"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Ref       string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// Attribute declares a named, typed, defaulted slot on a marker.
type Attribute struct {
	Name    string  `yaml:"name" json:"name"`
	Kind    Kind    `yaml:"kind" json:"kind"`
	Default any     `yaml:"default" json:"default"`
	Of      string  `yaml:"of,omitempty" json:"of,omitempty"`
	Aliases []Alias `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Marker is a registered metadata node type: its attribute schema and the
// meta-markers applied to the definition itself.
type Marker struct {
	Name        string      `yaml:"name" json:"name"`
	Attributes  []Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Uses        []Use       `yaml:"uses,omitempty" json:"uses,omitempty"`
	ContainerOf string      `yaml:"container_of,omitempty" json:"container_of,omitempty"`
}

// Attribute returns the declared attribute with the given name.
func (m Marker) Attribute(name string) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// validateMarker checks the structural shape of a definition and normalizes
// its default values in place. Cross-marker references are resolved lazily,
// so definitions may reference markers registered later.
func validateMarker(m *Marker) error {
	if m.Name == "" {
		return configErr("(unnamed)", "", "marker must have a name")
	}
	seen := make(map[string]bool, len(m.Attributes))
	for i := range m.Attributes {
		attr := &m.Attributes[i]
		if attr.Name == "" {
			return configErr(m.Name, "", "attribute %d must have a name", i)
		}
		if seen[attr.Name] {
			return configErr(m.Name, attr.Name, "attribute declared more than once")
		}
		seen[attr.Name] = true
		if _, ok := kindNames[attr.Kind]; !ok || attr.Kind == KindInvalid {
			return configErr(m.Name, attr.Name, "attribute has no valid kind")
		}
		refKind := attr.Kind == KindRef || attr.Kind == KindRefs || attr.Kind == KindUse || attr.Kind == KindUses
		if refKind && attr.Of == "" {
			return configErr(m.Name, attr.Name, "kind %s requires the referenced marker in of", attr.Kind)
		}
		if !refKind && attr.Of != "" {
			return configErr(m.Name, attr.Name, "of is only valid for reference kinds, not %s", attr.Kind)
		}
		if attr.Default == nil {
			return configErr(m.Name, attr.Name, "attribute must declare a default value")
		}
		normalized, err := normalizeValue(attr.Kind, attr.Default)
		if err != nil {
			return configErr(m.Name, attr.Name, "default %v", err)
		}
		attr.Default = normalized
		for _, claim := range attr.Aliases {
			if claim.Ref != "" && claim.Attribute != "" {
				return configErr(m.Name, attr.Name, "alias declares both ref %q and attribute %q, but only one is permitted", claim.Ref, claim.Attribute)
			}
		}
	}
	for _, u := range m.Uses {
		if u.Marker == "" {
			return configErr(m.Name, "", "use must name a marker")
		}
	}
	if m.ContainerOf != "" {
		v, ok := m.Attribute(ValueAttribute)
		if !ok {
			return configErr(m.Name, "", "container must declare a %s attribute holding the contained uses", ValueAttribute)
		}
		if v.Kind != KindUses {
			return configErr(m.Name, ValueAttribute, "container %s attribute must have kind uses, not %s", ValueAttribute, v.Kind)
		}
		if v.Of != m.ContainerOf {
			return configErr(m.Name, ValueAttribute, "container %s attribute must reference %s, not %s", ValueAttribute, m.ContainerOf, v.Of)
		}
	}
	return nil
}

// normalizeValue coerces a raw value, typically from a YAML document, into
// the canonical representation for the kind.
func normalizeValue(k Kind, v any) (any, error) {
	switch k {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindRef:
		switch r := v.(type) {
		case Ref:
			return r, nil
		case string:
			return Ref(r), nil
		}
	case KindUse:
		return normalizeUse(v)
	case KindStrings, KindInts, KindFloats, KindBools, KindRefs, KindUses:
		return normalizeSlice(k, v)
	}
	return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
}

func normalizeUse(v any) (any, error) {
	switch u := v.(type) {
	case Use:
		return u, nil
	case map[string]any:
		marker, _ := u["marker"].(string)
		if marker == "" {
			return nil, fmt.Errorf("use value must name a marker")
		}
		values, _ := u["values"].(map[string]any)
		return Use{Marker: marker, Values: values}, nil
	}
	return nil, fmt.Errorf("value %v (%T) does not conform to kind use", v, v)
}

func normalizeSlice(k Kind, v any) (any, error) {
	elem := k.Elem()
	var raw []any
	switch s := v.(type) {
	case []any:
		raw = s
	case []string:
		if elem == KindString {
			return s, nil
		}
		for _, e := range s {
			raw = append(raw, e)
		}
	case []int:
		if elem == KindInt {
			return s, nil
		}
		for _, e := range s {
			raw = append(raw, e)
		}
	case []float64:
		if elem == KindFloat {
			return s, nil
		}
		return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
	case []bool:
		if elem == KindBool {
			return s, nil
		}
		return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
	case []Ref:
		if elem == KindRef {
			return s, nil
		}
		return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
	case []Use:
		if elem == KindUse {
			return s, nil
		}
		return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
	default:
		return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
	}
	switch elem {
	case KindString:
		out := make([]string, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(string)
		}
		return out, nil
	case KindInt:
		out := make([]int, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(int)
		}
		return out, nil
	case KindFloat:
		out := make([]float64, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(float64)
		}
		return out, nil
	case KindBool:
		out := make([]bool, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(bool)
		}
		return out, nil
	case KindRef:
		out := make([]Ref, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(Ref)
		}
		return out, nil
	case KindUse:
		out := make([]Use, len(raw))
		for i, e := range raw {
			n, err := normalizeValue(elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = n.(Use)
		}
		return out, nil
	}
	return nil, fmt.Errorf("value %v (%T) does not conform to kind %s", v, v, k)
}

// equalValues compares two normalized attribute values.
func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// kindsCompatible reports whether a value of the source kind may flow into
// the target: identical kinds, or the target holds a list of the source's
// kind.
func kindsCompatible(source, target Kind) bool {
	return source == target || (target.Slice() && target.Elem() == source)
}
