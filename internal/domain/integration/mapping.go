package integration

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// maxPathSegments bounds source path resolution to parent.child.index.
const maxPathSegments = 3

// DataField is a contact data field defined on the marketing platform.
type DataField struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	Visibility   string `json:"visibility,omitempty"`
	DefaultValue any    `json:"defaultValue,omitempty"`
}

// MappingTable maps a destination data field name to a source path
// ("email", "billing_address.city", "custom_attributes.0.value").
// An empty path marks a configured field whose mapping is missing.
type MappingTable map[string]string

// ParseMappingTable parses the JSON object configured for data field mapping.
// Non-string values are kept as empty paths so they are reported as missing
// mappings instead of failing the whole table.
func ParseMappingTable(raw string) (MappingTable, error) {
	if strings.TrimSpace(raw) == "" {
		return MappingTable{}, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMappingTable, err)
	}
	table := make(MappingTable, len(values))
	for name, v := range values {
		path, _ := v.(string)
		table[name] = path
	}
	return table, nil
}

// MappingWarning describes a configured data field that produced no value
// because its mapping is missing.
type MappingWarning struct {
	Field   string
	Message string
}

// MappingRule pairs an allowed data field with its source path.
type MappingRule struct {
	Field DataField
	Path  string
}

// Rules keeps only the fields the destination recognizes, in the order the
// destination returned them. Unknown targets are dropped silently.
func (t MappingTable) Rules(allowed []DataField) []MappingRule {
	rules := make([]MappingRule, 0, len(t))
	for _, field := range allowed {
		path, ok := t[field.Name]
		if !ok {
			continue
		}
		rules = append(rules, MappingRule{Field: field, Path: path})
	}
	return rules
}

// ResolveFields resolves every allowed mapping rule against record and returns
// a flat data field map. Rules without a path yield a MappingWarning. A nil
// present predicate defaults to Truthy.
func ResolveFields(table MappingTable, allowed []DataField, record Record, present Presence) (map[string]any, []MappingWarning) {
	if present == nil {
		present = Truthy
	}
	fields := make(map[string]any)
	var warnings []MappingWarning
	for _, rule := range table.Rules(allowed) {
		if rule.Path == "" {
			warnings = append(warnings, MappingWarning{
				Field:   rule.Field.Name,
				Message: fmt.Sprintf("data field [%s] mapping key is missing", rule.Field.Name),
			})
			continue
		}
		if v, ok := ResolvePath(record, rule.Path, present); ok {
			fields[rule.Field.Name] = v
		}
	}
	return fields, warnings
}

// ResolvePath resolves a dotted source path of at most three segments.
// A single key is returned only when present. For parent.child[.index] both
// parent and child must be present; the index then addresses an element of
// the child value. Segments beyond the third are ignored.
func ResolvePath(record Record, path string, present Presence) (any, bool) {
	segments := strings.SplitN(path, ".", maxPathSegments+1)
	if len(segments) == 1 {
		v := record[path]
		return v, present(v)
	}

	parent := record[segments[0]]
	if !present(parent) {
		return nil, false
	}
	child, ok := lookup(parent, segments[1])
	if !ok || !present(child) {
		return nil, false
	}
	if len(segments) < 3 || segments[2] == "" {
		return child, true
	}
	return lookup(child, segments[2])
}

// lookup reads key from an object, or from an array when key is an index.
func lookup(container any, key string) (any, bool) {
	if m, ok := AsRecord(container); ok {
		v, found := m[key]
		return v, found && v != nil
	}
	if s, ok := container.([]any); ok {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(s) {
			return nil, false
		}
		return s[i], s[i] != nil
	}
	return nil, false
}
