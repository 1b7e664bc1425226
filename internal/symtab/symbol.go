// Package symtab is the interner and symbol table for golemon: every
// terminal, non-terminal, and multi-terminal named in a grammar file is
// turned into exactly one *Symbol, shared by every rule and item that
// refers to it by name. Indexing (the numeric IDs the rest of the pipeline
// packs into tables) happens once, in Index, after the whole grammar has
// been read.
package symtab

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dekarrin/golemon/internal/bitset"
)

// Kind distinguishes the three flavors of grammar symbol.
type Kind int

const (
	Terminal Kind = iota
	NonTerminal
	MultiTerminal
)

func (k Kind) String() string {
	switch k {
	case Terminal:
		return "terminal"
	case NonTerminal:
		return "non-terminal"
	case MultiTerminal:
		return "multi-terminal"
	default:
		return "unknown"
	}
}

// Assoc is the declared associativity of a terminal, used by the conflict
// resolver to break shift/reduce ties.
type Assoc int

const (
	AssocUnknown Assoc = iota
	AssocLeft
	AssocRight
	AssocNonAssoc
)

// Symbol is a single named grammar symbol: one terminal, non-terminal, or
// multi-terminal alias group. Symbols are interned by name within a Table
// and compared by pointer identity everywhere else in the pipeline.
type Symbol struct {
	Name string
	Kind Kind

	// Index is the symbol's final position in the packed symbol numbering,
	// assigned by Table.Index. It is -1 until then.
	Index int

	// Precedence is the symbol's declared precedence level, or -1 if it has
	// none. Associativity accompanies it.
	Precedence int
	Assoc      Assoc

	// DataType is the C-like (or target-language) type associated with this
	// symbol's semantic value, as declared with %type/%token_type/%default_type.
	DataType string

	// DestructorCode and DestructorLine hold a %destructor action and the
	// source line it was declared on, for symbols whose values must be
	// freed when discarded unused during error recovery or table
	// compression.
	DestructorCode string
	DestructorLine int

	// Lambda is true for non-terminals that can derive the empty string.
	Lambda bool

	// FirstSet is the set of terminals (by index) that can begin a string
	// derived from this symbol. Populated by the automaton builder's
	// FindFirstSets pass; nil before that.
	FirstSet *bitset.Set

	// BContent mirrors lemon's flag of the same name; no golemon pass sets
	// it, so it stays false.
	BContent bool

	// UseCount is incremented every time a rule names this symbol on its
	// LHS or RHS, and when it joins a multi-terminal; a terminal or
	// non-terminal other than the start symbol with a
	// zero UseCount is reported as unused.
	UseCount int

	// Fallback is the terminal this one falls back to (via %fallback) if no
	// action exists for it in a given state, or nil.
	Fallback *Symbol

	// SubSymbols holds the member terminals of a multi-terminal (declared
	// with the "A|B|C" syntax), in declaration order. Empty for ordinary
	// symbols.
	SubSymbols []*Symbol

	// DtNum indexes this symbol's DataType within the generated union type,
	// assigned by the code emitter. -1 until assigned.
	DtNum int
}

func (s *Symbol) String() string {
	return s.Name
}

// Table interns symbols by name and assigns their final packed indices.
type Table struct {
	symbols       map[string]*Symbol
	order         []*Symbol // declaration order, stable until Index is called
	multiTerminal []*Symbol // multi-terminals, tracked separately since Index excludes them from order
	indexed       bool
}

// New returns an empty Table.
func New() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// isTerminalName reports whether a symbol name follows the grammar's
// convention for terminals: all-caps identifiers denote terminals,
// everything else (including the synthetic "error" symbol) is a
// non-terminal.
func isTerminalName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r == '_' || (r >= '0' && r <= '9') {
			continue
		}
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// New interns name, creating a new Symbol of the kind implied by its
// spelling if one does not already exist, and returns it.
func (t *Table) New(name string) *Symbol {
	if sym, ok := t.symbols[name]; ok {
		return sym
	}
	kind := NonTerminal
	if isTerminalName(name) {
		kind = Terminal
	}
	sym := &Symbol{Name: name, Kind: kind, Precedence: -1, Index: -1, DtNum: -1}
	t.symbols[name] = sym
	t.order = append(t.order, sym)
	return sym
}

// NewKind interns name with an explicit Kind, for synthetic symbols whose
// kind can't be inferred from their spelling (the end-of-input marker "$"
// looks like neither an all-caps terminal nor an ordinary non-terminal).
func (t *Table) NewKind(name string, kind Kind) *Symbol {
	if sym, ok := t.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Kind: kind, Precedence: -1, Index: -1, DtNum: -1}
	t.symbols[name] = sym
	t.order = append(t.order, sym)
	return sym
}

// NewMultiTerminal interns a multi-terminal alias group under synthetic name
// name, whose members are the already-interned terminals in syms.
func (t *Table) NewMultiTerminal(name string, syms []*Symbol) *Symbol {
	sym, ok := t.symbols[name]
	if !ok {
		sym = &Symbol{Name: name, Kind: MultiTerminal, Precedence: -1, Index: -1, DtNum: -1}
		t.symbols[name] = sym
		t.order = append(t.order, sym)
		t.multiTerminal = append(t.multiTerminal, sym)
	}
	sym.SubSymbols = syms
	return sym
}

// MultiTerminals returns every interned multi-terminal, in declaration
// order. Index excludes multi-terminals from All and from the packed
// numbering, so callers that still need to reach them afterward (notably
// FindFirstSets, which must populate a multi-terminal's own FirstSet from
// its members) use this instead.
func (t *Table) MultiTerminals() []*Symbol {
	out := make([]*Symbol, len(t.multiTerminal))
	copy(out, t.multiTerminal)
	return out
}

// Lookup returns the symbol interned under name, if any.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// All returns every interned symbol in declaration order, or, once Index
// has run, in index order with multi-terminals left out.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// group assigns the coarse sort bucket used by Index: terminals first, then
// the synthetic error non-terminal, then ordinary non-terminals, then the
// {default} sentinel, with multi-terminals last (and ultimately excluded
// from the final count).
func group(s *Symbol) int {
	switch {
	case s.Kind == Terminal:
		return 0
	case s.Kind == NonTerminal && s.Name == "error":
		return 1
	case s.Kind == NonTerminal && s.Name == "{default}":
		return 3
	case s.Kind == NonTerminal:
		return 2
	default:
		return 4
	}
}

// Index sorts every interned symbol (terminals before non-terminals, the
// "error" symbol first among non-terminals if declared, the "{default}"
// sentinel last) and assigns each a final sequential Index. Multi-terminals
// are excluded from the numbering entirely: only their member terminals,
// already counted, occupy a slot. It returns the number of terminal symbols
// and the total number of indexed symbols (terminals + non-terminals).
//
// Index may be called only once per Table.
func (t *Table) Index() (nTerminal, nSymbol int) {
	if t.indexed {
		panic("symtab: Index called more than once")
	}
	t.indexed = true

	all := make([]*Symbol, len(t.order))
	copy(all, t.order)

	col := collate.New(language.Und)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		ga, gb := group(a), group(b)
		if ga != gb {
			return ga < gb
		}
		return col.CompareString(a.Name, b.Name) < 0
	})

	idx := 0
	reordered := all[:0:0]
	for _, s := range all {
		if s.Kind == MultiTerminal {
			s.Index = -1
			continue
		}
		s.Index = idx
		idx++
		reordered = append(reordered, s)
		if s.Kind == Terminal {
			nTerminal++
		}
	}
	t.order = reordered
	nSymbol = idx
	return nTerminal, nSymbol
}
