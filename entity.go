package xtree

import "github.com/xtree-go/xtree/internal/orderedmap"

// predefinedEntities are always resolvable without a DTD declaration.
var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// entityTable accumulates general ENTITY declarations seen while the
// builder is in its DTD state. The first declaration of a name wins;
// later ones are ignored, per XML 1.0's rule for duplicate declarations.
//
// generalPos records, for each declared entity, the byte offset of its raw
// value within the document's own input buffer: the declared value is a
// literal quoted string inside the internal subset, so it is always a true
// substring of the input, and re-lexing it as content needs that offset to
// report positions and to decide whether children it produces may borrow
// straight from the input (see expandEntityContent in textassembler.go).
type entityTable struct {
	general    *orderedmap.Map[string, string]
	generalPos map[string]int
}

func newEntityTable() *entityTable {
	return &entityTable{
		general:    orderedmap.New[string, string](),
		generalPos: make(map[string]int),
	}
}

// insert records name -> rawValue at absolute offset pos, if name hasn't
// already been declared.
func (t *entityTable) insert(name, rawValue string, pos int) {
	if err := t.general.Set(name, rawValue); err == nil {
		t.generalPos[name] = pos
	}
}

// lookup resolves name against the predefined set first, then the general
// entities declared in this document's DTD. pos is the value's absolute
// offset in the document's input buffer, or -1 for a predefined entity
// (whose replacement text is a fixed constant, not a slice of the input).
func (t *entityTable) lookup(name string) (value string, pos int, found bool) {
	if v, ok := predefinedEntities[name]; ok {
		return v, -1, true
	}
	if v, ok := t.general.Get(name); ok {
		return v, t.generalPos[name], true
	}
	return "", -1, false
}
