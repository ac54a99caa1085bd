package fieldtypes

import "sort"

// Property describes an additional capability of a field
type Property string

const (
	PropertyEnumerable     Property = "enumerable"
	PropertyFullTextSearch Property = "full-text-search"
	PropertyTypeConflict   Property = "type-conflict"
)

// FieldType is a field name with its declared kind
type FieldType struct {
	Name       string
	Kind       Kind
	Properties []Property
}

// New creates a field type. Full-text kinds get the full-text-search property.
func New(name string, kind Kind, props ...Property) FieldType {
	if kind == KindStringFTS && !hasProperty(props, PropertyFullTextSearch) {
		props = append(props, PropertyFullTextSearch)
	}
	return FieldType{Name: name, Kind: kind, Properties: props}
}

// Validate reports whether value is a legal literal for this field
func (f FieldType) Validate(value string) bool {
	return f.Kind.Validate(value)
}

// HasProperty reports whether the field carries p
func (f FieldType) HasProperty(p Property) bool {
	return hasProperty(f.Properties, p)
}

func hasProperty(props []Property, p Property) bool {
	for _, candidate := range props {
		if candidate == p {
			return true
		}
	}
	return false
}

// FieldTypes is a set of field types keyed by field name
type FieldTypes struct {
	byName map[string]FieldType
}

// NewFieldTypes builds a set from types, merging duplicates by name
func NewFieldTypes(types ...FieldType) FieldTypes {
	s := FieldTypes{byName: make(map[string]FieldType, len(types))}
	for _, t := range types {
		s.add(t)
	}
	return s
}

func (s *FieldTypes) add(t FieldType) {
	existing, ok := s.byName[t.Name]
	if !ok {
		s.byName[t.Name] = t
		return
	}
	if existing.Kind == t.Kind {
		return
	}
	// Streams disagree on the type, so any literal is accepted.
	s.byName[t.Name] = New(t.Name, KindString, PropertyTypeConflict)
}

// Get returns the field type for name
func (s FieldTypes) Get(name string) (FieldType, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Has reports whether name is a known field
func (s FieldTypes) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Len returns the number of fields
func (s FieldTypes) Len() int {
	return len(s.byName)
}

// Names returns the sorted field names
func (s FieldTypes) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the field types sorted by name
func (s FieldTypes) All() []FieldType {
	names := s.Names()
	out := make([]FieldType, 0, len(names))
	for _, name := range names {
		out = append(out, s.byName[name])
	}
	return out
}

// Merge returns the union of s and other. A field declared with different
// kinds becomes a string field flagged with the type-conflict property.
func (s FieldTypes) Merge(other FieldTypes) FieldTypes {
	merged := FieldTypes{byName: make(map[string]FieldType, len(s.byName)+len(other.byName))}
	for _, t := range s.byName {
		merged.add(t)
	}
	for _, t := range other.byName {
		merged.add(t)
	}
	return merged
}
