package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/resolve"
	"github.com/dekarrin/golemon/internal/symtab"
)

func buildCalcAutomaton(t *testing.T) (*automaton.Builder, int) {
	t.Helper()
	tab := symtab.New()
	expr := tab.New("expr")
	num := tab.New("NUM")
	plus := tab.New("PLUS")
	plus.Precedence, plus.Assoc = 1, symtab.AssocLeft

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: expr}, {Sym: plus}, {Sym: expr}}, "", 0)
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)
	nRule := len(g.Rules)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()
	resolve.Resolve(b.States)
	resolve.Compress(b.States)
	return b, nRule
}

func buildRelabelAutomaton(t *testing.T) *automaton.Builder {
	t.Helper()
	tab := symtab.New()
	s := tab.New("S")
	a := tab.New("A")
	num := tab.New("NUM")

	g := grammar.New(tab)
	g.Start = s
	g.AddRule(s, "", []grammar.RHSSymbol{{Sym: a}}, "", 0)
	g.AddRule(a, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()
	resolve.Resolve(b.States)
	resolve.ResortStates(b.States)
	return b
}

func Test_Build_gotoAtMatchesOriginalGotos(t *testing.T) {
	assert := assert.New(t)
	b := buildRelabelAutomaton(t)

	table := Build(b.States, b.NTerminal, len(b.Grammar.Rules), nil)

	for _, s := range b.States {
		for _, gt := range s.Gotos {
			target, ok := table.GotoAt(s.StateNum, gt.NT.Index)
			assert.True(ok, "goto on %s from state %d should be packed", gt.NT.Name, s.StateNum)
			assert.Equal(gt.Target.StateNum, target)
		}
	}
}

func Test_Build_fallbackPopulatesTable(t *testing.T) {
	assert := assert.New(t)
	b, nRule := buildCalcAutomaton(t)

	fallback := make([]int, b.NTerminal)
	for i := range fallback {
		fallback[i] = -1
	}
	fallback[0] = 1

	table := Build(b.States, b.NTerminal, nRule, fallback)

	assert.Equal(1, table.Fallback[0])
	assert.Equal(-1, table.Fallback[1])
}

func Test_Build_actionAtMatchesOriginalActions(t *testing.T) {
	assert := assert.New(t)
	b, nRule := buildCalcAutomaton(t)

	table := Build(b.States, b.NTerminal, nRule, nil)

	for _, s := range b.States {
		for _, a := range s.Actions {
			code := table.ActionAt(s.StateNum, a.Lookahead.Index)
			switch a.Type {
			case automaton.Shift:
				st, ok := table.IsShift(code)
				assert.True(ok)
				assert.Equal(a.Target.StateNum, st)
			case automaton.Reduce:
				r, ok := table.IsReduce(code)
				assert.True(ok)
				assert.Equal(a.Rule.IRule, r)
			case automaton.Accept:
				assert.True(table.IsAccept(code))
			}
		}
	}
}
