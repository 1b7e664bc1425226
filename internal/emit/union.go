// Package emit turns a packed action table and a grammar's rule actions
// into generated Go source: a parser stack type able to hold every
// declared %type, a flat action/lookahead table, and one function per rule
// translating its semantic action from alias names to stack-slot
// references.
package emit

import (
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

// UnionField is one member of the generated parser stack's minor-value
// union: a single Go field shared by every symbol declared with the same
// data type string, so that two %type declarations of the same type don't
// each get their own redundant stack field.
type UnionField struct {
	// FieldName is the generated field's name, "yy0", "yy1", and so on in
	// the order AssignDataTypes first sees each type.
	FieldName string
	// GoType is the verbatim type string from the grammar's %type/%token_type
	// declaration.
	GoType string
}

// AssignDataTypes deduplicates every distinct declared data type in g's
// symbol table into a single UnionField apiece (first-seen order, stable
// across runs of the same grammar so generated output doesn't reorder
// fields on rebuilds with no type changes), and stamps each symbol's DtNum
// with the index of the field its value lives in, or -1 for symbols with no
// declared type (pure syntax, carrying no semantic value).
func AssignDataTypes(g *grammar.Grammar) []UnionField {
	seen := make(map[string]int)
	var fields []UnionField

	for _, s := range g.Symbols.All() {
		if s.DataType == "" {
			s.DtNum = -1
			continue
		}
		idx, ok := seen[s.DataType]
		if !ok {
			idx = len(fields)
			seen[s.DataType] = idx
			fields = append(fields, UnionField{
				FieldName: fieldName(idx),
				GoType:    s.DataType,
			})
		}
		s.DtNum = idx
	}

	return fields
}

func fieldName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "yy" + string(digits[i])
	}
	return "yy" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// DataTypeOf returns the data type declared for sym, or the grammar's
// %default_type if sym has none of its own.
func DataTypeOf(g *grammar.Grammar, sym *symtab.Symbol) string {
	if sym.DataType != "" {
		return sym.DataType
	}
	if def, ok := g.Symbols.Lookup("{default}"); ok {
		return def.DataType
	}
	return ""
}
