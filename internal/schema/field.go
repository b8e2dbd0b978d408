// Package schema describes form fields for remote resources and the
// flattened key convention shared by schema builders and payload mappers.
//
// Nested objects are flattened with "." separators (org.name). Repeatable
// groups are declared as a parent field whose Children are built under the
// composed prefix "<parent>[]". Output array children use "__" so their keys
// cannot collide with dotted object keys.
package schema

// FieldType is the primitive type of a form field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
)

// Field describes one form field or nested group.
//
// A field with Children is a repeatable group and carries no Type.
type Field struct {
	Key      string    `json:"key" yaml:"key"`
	Label    string    `json:"label" yaml:"label"`
	Type     FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any       `json:"default,omitempty" yaml:"default,omitempty"`
	HelpText string    `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Choices  []string  `json:"choices,omitempty" yaml:"choices,omitempty"`
	Children []Field   `json:"children,omitempty" yaml:"children,omitempty"`

	// Dynamic names another action's output that supplies this field's
	// choices, formatted as "<actionKey>.<valueField>.<labelField>".
	Dynamic string `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
}

// IsGroup reports whether the field is a repeatable group of children.
func (f Field) IsGroup() bool {
	return len(f.Children) > 0
}

// Keys returns every key declared by fields, depth first.
func Keys(fields []Field) []string {
	var keys []string
	for _, f := range fields {
		keys = append(keys, f.Key)
		keys = append(keys, Keys(f.Children)...)
	}
	return keys
}

// Concat joins field sequences into a new slice.
func Concat(groups ...[]Field) []Field {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	out := make([]Field, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
