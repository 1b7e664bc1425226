package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

func buildExprGrammar(t *testing.T) *automaton.Builder {
	t.Helper()
	tab := symtab.New()
	expr := tab.New("expr")
	plus := tab.New("PLUS")
	star := tab.New("STAR")
	num := tab.New("NUM")

	plus.Precedence, plus.Assoc = 1, symtab.AssocLeft
	star.Precedence, star.Assoc = 2, symtab.AssocLeft

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: expr}, {Sym: plus}, {Sym: expr}}, "", 0)
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: expr}, {Sym: star}, {Sym: expr}}, "", 0)
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()
	return b
}

func Test_Resolve_shiftReduceUsesPrecedence(t *testing.T) {
	assert := assert.New(t)
	b := buildExprGrammar(t)

	conflicts := Resolve(b.States)

	assert.Empty(conflicts, "differing declared precedence should resolve every shift/reduce tie in the classic dangling expr grammar cleanly")
	for _, s := range b.States {
		seen := make(map[*symtab.Symbol]bool)
		for _, a := range s.Actions {
			assert.False(seen[a.Lookahead], "resolved state must have at most one action per lookahead")
			seen[a.Lookahead] = true
		}
	}
}

func Test_Resolve_nonAssocDropsBothActions(t *testing.T) {
	assert := assert.New(t)
	tab := symtab.New()
	expr := tab.New("expr")
	eq := tab.New("EQ")
	num := tab.New("NUM")
	eq.Precedence, eq.Assoc = 1, symtab.AssocNonAssoc

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: expr}, {Sym: eq}, {Sym: expr}}, "", 0)
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()

	conflicts := Resolve(b.States)

	assert.NotEmpty(conflicts, "chained non-associative operator should produce a genuinely unresolved conflict")
	var sawError bool
	for _, c := range conflicts {
		if c.Winner.Type == automaton.Error {
			sawError = true
		}
	}
	assert.True(sawError, "non-assoc tie should drop both the shift and the reduce rather than pick a winner")
}

// Test_Compress_foldsTrivialRelabelIntoGoto builds the classic
// single-symbol relabeling chain (S ::= A, A ::= B, B ::= X) and checks
// that after Compress runs, state 0's shift on X ends up going straight to
// the state B's goto-on-B already reaches, rather than staying a separate
// ShiftReduce of "B ::= X.".
func Test_Compress_foldsTrivialRelabelIntoGoto(t *testing.T) {
	assert := assert.New(t)
	tab := symtab.New()
	s := tab.New("S")
	a := tab.New("A")
	b := tab.New("B")
	x := tab.New("X")

	g := grammar.New(tab)
	g.Start = s
	g.AddRule(s, "", []grammar.RHSSymbol{{Sym: a}}, "", 0)
	g.AddRule(a, "", []grammar.RHSSymbol{{Sym: b}}, "", 0)
	g.AddRule(b, "", []grammar.RHSSymbol{{Sym: x}}, "", 0)

	bld := automaton.NewBuilder(g)
	bld.FindRulePrecedences()
	bld.FindFirstSets()
	bld.FindStates()
	bld.FindLinks()
	bld.FindFollowSets()
	bld.FindActions()
	Resolve(bld.States)
	Compress(bld.States)

	for _, st := range bld.States {
		for _, act := range st.Actions {
			assert.NotEqual(automaton.ShiftReduce, act.Type, "a trivial single-symbol relabel should fold into a goto, not survive as a ShiftReduce")
		}
	}
}

func Test_Compress_defaultReduceDropsRepeatedRule(t *testing.T) {
	assert := assert.New(t)
	b := buildExprGrammar(t)
	Resolve(b.States)
	Compress(b.States)

	var sawDefault bool
	for _, s := range b.States {
		if s.DefaultRule >= 0 {
			sawDefault = true
		}
	}
	assert.True(sawDefault, "at least one state should have collapsed to a default reduce")
}
