// api/schemas/fields.go
package schemas

import "strings"

// FieldValue pairs a logical field name from a scenario with the exact value it
// must receive.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldValueMap is the ordered set of target fields for a run. Order is the
// order fields were first declared in the scenario and is kept so prompts and
// logs are deterministic. It is treated as immutable once a run starts.
type FieldValueMap []FieldValue

// NormalizeFieldName lower-cases a field name or DOM identifier and removes all
// whitespace. Every field comparison in the system goes through this function.
func NormalizeFieldName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// Set returns m with name bound to value. An existing field, by normalized
// name, keeps its position and takes the new value.
func (m FieldValueMap) Set(name, value string) FieldValueMap {
	key := NormalizeFieldName(name)
	for i, fv := range m {
		if NormalizeFieldName(fv.Name) == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, FieldValue{Name: name, Value: value})
}

// Names returns the field names in declaration order.
func (m FieldValueMap) Names() []string {
	names := make([]string, 0, len(m))
	for _, fv := range m {
		names = append(names, fv.Name)
	}
	return names
}

// NamesWithValue returns every field whose target value equals value exactly.
// Several fields may share a value (a password and its confirmation).
func (m FieldValueMap) NamesWithValue(value string) []string {
	var names []string
	for _, fv := range m {
		if fv.Value == value {
			names = append(names, fv.Name)
		}
	}
	return names
}

// IsPasswordField reports whether a logical field name denotes a secret.
func IsPasswordField(name string) bool {
	return strings.Contains(NormalizeFieldName(name), "password")
}
