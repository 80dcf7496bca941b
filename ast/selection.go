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

// Selection is one entry of a SelectionSet. It is a closed sum: ScalarField, LinkedField,
// FragmentSpread, InlineFragment, Condition and HandleField are the only permitted
// implementations.
type Selection interface {
	// selectionNode marks the embedding type as a Selection, keeping the node kinds a closed sum.
	selectionNode()
}

// SelectionSet is an ordered list of Selection to apply against one record.
type SelectionSet []Selection

// FieldSelection is implemented by the Selection kinds that read or write a single storage key:
// ScalarField, LinkedField and HandleField. It lets the normalizer and reader share the
// StorageKey-derivation step across all three.
type FieldSelection interface {
	Selection

	// GetName returns the field's schema name (as opposed to its response alias).
	GetName() string

	// GetAlias returns the field's response alias, or "" if the field is not aliased.
	GetAlias() string

	// GetArgs returns the field's arguments.
	GetArgs() Arguments
}

// ResponseKey returns the key a FieldSelection occupies in a response/Snapshot tree: the alias if
// present, else the name.
func ResponseKey(f FieldSelection) string {
	if alias := f.GetAlias(); alias != "" {
		return alias
	}
	return f.GetName()
}

// ScalarField selects a leaf field.
type ScalarField struct {
	Name  string
	Alias string
	Args  Arguments
}

var _ FieldSelection = ScalarField{}

func (ScalarField) selectionNode()        {}
func (f ScalarField) GetName() string     { return f.Name }
func (f ScalarField) GetAlias() string    { return f.Alias }
func (f ScalarField) GetArgs() Arguments  { return f.Args }

// LinkedField selects a field whose value is a reference (or, if Plural, a list of references) to
// other records, recursing into Selections.
type LinkedField struct {
	Name  string
	Alias string
	Args  Arguments

	// ConcreteType, if non-empty, is the type the normalizer writes a linked child record under
	// when the response object carries no __typename. The reader does not consult it.
	ConcreteType string

	// Plural marks a PluralLinkedField: the response value is expected to be a list.
	Plural bool

	Selections SelectionSet
}

var _ FieldSelection = LinkedField{}

func (LinkedField) selectionNode()       {}
func (f LinkedField) GetName() string    { return f.Name }
func (f LinkedField) GetAlias() string   { return f.Alias }
func (f LinkedField) GetArgs() Arguments { return f.Args }

// FragmentSpread inlines (or, if Masked, points at) another selection's fields.
//
// A non-masked spread is resolved entirely at compile time by the (out of scope) IR compiler: by
// the time the cache sees it, Selections already holds the referenced fragment's body, so the
// normalizer and reader can treat it exactly like an InlineFragment. A masked spread keeps
// Selections too (so the normalizer can still write the underlying fields) but tells the reader to
// additionally emit a fragment pointer instead of inlining the data.
type FragmentSpread struct {
	FragmentName string
	Args         Arguments
	Masked       bool
	Selections   SelectionSet
}

var _ Selection = FragmentSpread{}

func (FragmentSpread) selectionNode() {}

// InlineFragment enters Selections only when the current record's concrete type satisfies
// TypeCondition (empty TypeCondition means unconditional).
type InlineFragment struct {
	TypeCondition string
	Selections    SelectionSet
}

var _ Selection = InlineFragment{}

func (InlineFragment) selectionNode() {}

// Matches reports whether typeName satisfies the fragment's type condition.
func (f InlineFragment) Matches(typeName string) bool {
	return f.TypeCondition == "" || f.TypeCondition == typeName
}

// Condition guards Selections behind an @include/@skip-style boolean, sourced from either a
// literal or a bound variable.
type Condition struct {
	Selections SelectionSet

	// PassingValue is the boolean the condition must evaluate to for Selections to apply (true for
	// @include, false for @skip).
	PassingValue bool

	// Exactly one of Variable or the Literal/HasLiteral pair is set.
	Variable  string
	HasLiteral bool
	Literal    bool
}

var _ Selection = Condition{}

func (Condition) selectionNode() {}

// Evaluate resolves the condition's guard against vars and reports whether Selections should be
// visited.
func (c Condition) Evaluate(vars Variables) bool {
	var actual bool
	if c.Variable != "" {
		v, ok := vars.Lookup(c.Variable)
		if !ok {
			return false
		}
		b, _ := v.(bool)
		actual = b
	} else {
		actual = c.Literal
	}
	return actual == c.PassingValue
}

// HandleField defers field population to a registered handler.
type HandleField struct {
	Name  string
	Alias string
	Args  Arguments

	// Handle names the handler (see nexus/handler.Registry) that populates this field.
	Handle string

	// Key scopes the handler's storage independent of the field's own arguments (Relay's
	// "handle key" convention for connection-style fields).
	Key string

	Plural     bool
	Selections SelectionSet
}

var _ FieldSelection = HandleField{}

func (HandleField) selectionNode()       {}
func (f HandleField) GetName() string    { return f.Name }
func (f HandleField) GetAlias() string   { return f.Alias }
func (f HandleField) GetArgs() Arguments { return f.Args }
