// Package grammar holds the rule and item (configuration) model that the
// automaton builder operates on. A Grammar is nothing more than an ordered
// list of Rules over symbols drawn from a shared *symtab.Table; there is no
// separate "parsed AST" layer between the frontend and this package.
package grammar

import (
	"strings"

	"github.com/dekarrin/golemon/internal/symtab"
)

// RHSSymbol is one symbol occurrence on a rule's right-hand side, together
// with the local alias (if any) the rule's action code refers to it by.
type RHSSymbol struct {
	Sym   *symtab.Symbol
	Alias string
}

// Rule is a single grammar production, LHS -> RHS, together with everything
// the later pipeline stages need to know about it: its optional semantic
// action, its precedence for conflict resolution, and the bookkeeping flags
// the compressor and emitter set as they process it.
type Rule struct {
	// IRule is the rule's index in the Grammar's Rules slice, fixed at
	// parse time and used as the stable identity for reduce actions.
	IRule int

	LHS      *symtab.Symbol
	LHSAlias string
	RHS      []RHSSymbol

	// Precedence is the symbol whose precedence this rule uses for
	// shift/reduce resolution: either the last terminal on the RHS, or the
	// symbol named in an explicit [SYMBOL] precedence override. Nil if the
	// rule has no terminal to inherit precedence from and no override.
	Precedence *symtab.Symbol

	// Code is the raw semantic action source attached to the rule, and
	// CodeLine is the 1-indexed line in the source grammar file it started
	// on (used for #line emission).
	Code     string
	CodeLine int

	// CodePrefix and CodeSuffix are text to bracket Code with; no golemon
	// pass sets or reads them.
	CodePrefix string
	CodeSuffix string

	// NoCode is true for rules with no action at all (pure grammar
	// rules); such reduces need no stack-slot bookkeeping beyond popping.
	NoCode bool

	// DoesReduce is set once the automaton builder confirms this rule is
	// reachable as the reduce rule of at least one state.
	DoesReduce bool

	// NeverReduce is set by the frontend for rules whose code block is the
	// literal "NEVER-REDUCE"; these are reported as unused rules. No later
	// pass sets it.
	NeverReduce bool

	// LHSStart marks the single synthetic augmenting rule "S' -> S".
	LHSStart bool

	// CodeEmitted records that this rule's action function has been
	// written out; the emitter neither sets nor reads it and writes one
	// action function per rule.
	CodeEmitted bool
}

// String renders the rule in the "LHS ::= sym sym sym" form used in .out
// reports and error messages.
func (r *Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.LHS.Name)
	sb.WriteString(" ::= ")
	for i, rs := range r.RHS {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(rs.Sym.Name)
	}
	if len(r.RHS) == 0 {
		sb.WriteString("/* empty */")
	}
	return sb.String()
}

// Grammar is an ordered list of rules, all of whose symbols are interned in
// a single shared Table.
type Grammar struct {
	Symbols *symtab.Table
	Rules   []*Rule
	Start   *symtab.Symbol

	// SourceHash is a content hash of the preprocessed grammar source this
	// Grammar was parsed from, stamped by golemon's Generator.Parse after the
	// frontend returns. Build-result caching
	// uses it to detect whether a previous run's packed table still applies.
	SourceHash string
}

// New returns an empty Grammar over the given symbol table.
func New(symbols *symtab.Table) *Grammar {
	return &Grammar{Symbols: symbols}
}

// AddRule appends a new rule to the grammar, assigning it the next IRule
// value, and marks every RHS symbol as used.
func (g *Grammar) AddRule(lhs *symtab.Symbol, lhsAlias string, rhs []RHSSymbol, code string, codeLine int) *Rule {
	r := &Rule{
		IRule:      len(g.Rules),
		LHS:        lhs,
		LHSAlias:   lhsAlias,
		RHS:        rhs,
		Code:       code,
		CodeLine:   codeLine,
		NoCode:     code == "",
		Precedence: rightmostTerminal(rhs),
	}
	lhs.UseCount++ // the LHS of every rule but the start rule is "used" by being derivable; corrected for start symbol at Finalize
	for _, rs := range rhs {
		rs.Sym.UseCount++
	}
	g.Rules = append(g.Rules, r)
	return r
}

func rightmostTerminal(rhs []RHSSymbol) *symtab.Symbol {
	for i := len(rhs) - 1; i >= 0; i-- {
		if rhs[i].Sym.Kind == symtab.Terminal {
			return rhs[i].Sym
		}
		if rhs[i].Sym.Kind == symtab.MultiTerminal && len(rhs[i].Sym.SubSymbols) > 0 {
			return rhs[i].Sym.SubSymbols[0]
		}
	}
	return nil
}

// Finalize augments the grammar with the synthetic start rule S' -> S, where
// S is the declared start symbol (the LHS of the first rule if none was
// declared explicitly via %start_symbol). It must be called exactly once,
// after every real rule has been added.
func (g *Grammar) Finalize() *Rule {
	if g.Start == nil && len(g.Rules) > 0 {
		g.Start = g.Rules[0].LHS
	}
	augName := g.Start.Name + "'"
	augSym := g.Symbols.New(augName)
	startRule := &Rule{
		IRule:    len(g.Rules),
		LHS:      augSym,
		RHS:      []RHSSymbol{{Sym: g.Start}},
		NoCode:   true,
		LHSStart: true,
	}
	g.Start.UseCount++
	g.Rules = append(g.Rules, startRule)
	return startRule
}

// RulesForLHS returns every rule whose LHS is sym, in declaration order.
// Called frequently during closure computation, so the grammar builder may
// wish to cache this; the naive scan here is adequate for the grammar sizes
// golemon targets (hundreds, not millions, of rules).
func (g *Grammar) RulesForLHS(sym *symtab.Symbol) []*Rule {
	var out []*Rule
	for _, r := range g.Rules {
		if r.LHS == sym {
			out = append(out, r)
		}
	}
	return out
}
