/**
 * Copyright (c) 2024, The Nexus Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package ast

// Variables binds free variable references appearing in a selection AST to concrete values.
type Variables map[string]interface{}

// Lookup returns the bound value for name and whether it was bound at all.
func (vars Variables) Lookup(name string) (interface{}, bool) {
	v, ok := vars[name]
	return v, ok
}

type valueKind uint8

const (
	kindScalarValue valueKind = iota
	kindListValue
	kindObjectValue
	kindVariableValue
)

// ObjectField is one name/value pair of an ObjectValue literal.
type ObjectField struct {
	Name  string
	Value Value
}

// Value is an argument value: either a literal (scalar, list or object, recursively) or a
// reference to a bound Variable. It is a closed sum type following the same design as
// Record.FieldValue in the root package.
type Value struct {
	kind     valueKind
	scalar   interface{}
	list     []Value
	object   []ObjectField
	variable string
}

// ScalarValue wraps a literal scalar (including nil for a GraphQL null literal).
func ScalarValue(v interface{}) Value {
	return Value{kind: kindScalarValue, scalar: v}
}

// ListValue wraps a literal list, whose elements may themselves reference variables.
func ListValue(items []Value) Value {
	return Value{kind: kindListValue, list: items}
}

// ObjectValue wraps a literal input object, whose field values may themselves reference
// variables.
func ObjectValue(fields []ObjectField) Value {
	return Value{kind: kindObjectValue, object: fields}
}

// VariableValue wraps a reference to a bound variable by name.
func VariableValue(name string) Value {
	return Value{kind: kindVariableValue, variable: name}
}

// Resolve evaluates v against vars, returning the plain Go value (scalars, []interface{},
// map[string]interface{}) it denotes and whether it is defined at all. An undefined result
// happens only when v is a variable reference absent from vars; undefined values nested inside a
// list become that list element's zero value (nil) and undefined fields of an object literal are
// omitted from the result entirely, matching how an absent argument is dropped
// step 2.
func (v Value) Resolve(vars Variables) (interface{}, bool) {
	switch v.kind {
	case kindScalarValue:
		return v.scalar, true

	case kindVariableValue:
		return vars.Lookup(v.variable)

	case kindListValue:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			resolved, ok := item.Resolve(vars)
			if ok {
				out[i] = resolved
			}
		}
		return out, true

	case kindObjectValue:
		out := make(map[string]interface{}, len(v.object))
		for _, field := range v.object {
			resolved, ok := field.Value.Resolve(vars)
			if ok {
				out[field.Name] = resolved
			}
		}
		return out, true
	}
	return nil, false
}

// IsVariable reports whether v is a direct reference to a variable (as opposed to a literal that
// may merely contain one, nested).
func (v Value) IsVariable() bool {
	return v.kind == kindVariableValue
}

// VariableName returns the referenced variable's name. It panics if !IsVariable().
func (v Value) VariableName() string {
	if v.kind != kindVariableValue {
		panic("ast: Value.VariableName called on a non-variable value")
	}
	return v.variable
}

// Argument is one name/value pair passed to a field, directive, or handle.
type Argument struct {
	Name  string
	Value Value
}

// Arguments is an ordered list of Argument. Order does not affect StorageKey derivation but is
// preserved for deterministic iteration in tests and tooling.
type Arguments []Argument

// Resolve evaluates every argument against vars and returns the defined ones as a plain
// map[string]interface{}, dropping arguments whose value resolves to undefined.
func (args Arguments) Resolve(vars Variables) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for _, arg := range args {
		if resolved, ok := arg.Value.Resolve(vars); ok {
			out[arg.Name] = resolved
		}
	}
	return out
}
