package schema

import "strings"

const (
	objectSeparator     = "."
	arrayChildSeparator = "__"
)

// KeyLabelPrefix holds the key and label prefixes derived for one schema
// or mapping invocation.
type KeyLabelPrefix struct {
	KeyPrefix   string
	LabelPrefix string
}

// BuildKeyAndLabel computes the prefixes used to flatten nested fields.
//
// An empty prefix yields empty prefixes. Otherwise the key prefix is prefix
// plus "." except for output array children, which use "__". The label
// prefix always uses dot notation.
func BuildKeyAndLabel(prefix string, isInput, isArrayChild bool) KeyLabelPrefix {
	if prefix == "" {
		return KeyLabelPrefix{}
	}

	sep := objectSeparator
	if !isInput && isArrayChild {
		sep = arrayChildSeparator
	}

	keyPrefix := prefix + sep
	return KeyLabelPrefix{
		KeyPrefix:   keyPrefix,
		LabelPrefix: strings.ReplaceAll(keyPrefix, arrayChildSeparator, objectSeparator),
	}
}

// Context parameterises a schema builder. It is a value type; derived
// contexts are returned rather than mutated.
type Context struct {
	Prefix       string
	IsInput      bool
	IsArrayChild bool
}

// Input returns a top-level input context rooted at prefix.
func Input(prefix string) Context {
	return Context{Prefix: prefix, IsInput: true}
}

// Output returns a top-level output context rooted at prefix.
func Output(prefix string) Context {
	return Context{Prefix: prefix}
}

// Prefixes returns the key and label prefixes for c.
func (c Context) Prefixes() KeyLabelPrefix {
	return BuildKeyAndLabel(c.Prefix, c.IsInput, c.IsArrayChild)
}

// Key returns the flattened key for name.
func (c Context) Key(name string) string {
	return c.Prefixes().KeyPrefix + name
}

// Label returns the bracketed label used for internal and identifier
// fields, e.g. "[org.id]".
func (c Context) Label(name string) string {
	return "[" + c.Prefixes().LabelPrefix + name + "]"
}

// Nested returns the context for a nested object stored under name.
func (c Context) Nested(name string) Context {
	return Context{Prefix: c.Key(name), IsInput: c.IsInput}
}

// Child returns the context for the elements of a repeatable group stored
// under name. The composed prefix is "<key>[]".
func (c Context) Child(name string) Context {
	return Context{Prefix: c.Key(name) + "[]", IsInput: c.IsInput, IsArrayChild: true}
}

// MappingPrefix returns the key prefix mappers use to read flattened input
// stored under prefix.
func MappingPrefix(prefix string) string {
	return BuildKeyAndLabel(prefix, true, false).KeyPrefix
}

// ChildPrefix returns the prefix under which the elements of the group
// stored at key are flattened. It matches Context.Child for input schemas.
func ChildPrefix(key string) string {
	return key + "[]"
}
