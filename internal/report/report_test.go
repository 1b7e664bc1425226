package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/pack"
	"github.com/dekarrin/golemon/internal/resolve"
	"github.com/dekarrin/golemon/internal/symtab"
)

func buildForReport(t *testing.T) (*grammar.Grammar, *automaton.Builder, []resolve.Conflict, *pack.Table) {
	t.Helper()
	tab := symtab.New()
	expr := tab.New("expr")
	num := tab.New("NUM")

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)
	nRule := len(g.Rules)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()
	conflicts := resolve.Resolve(b.States)
	resolve.Compress(b.States)
	table := pack.Build(b.States, b.NTerminal, nRule, nil)
	return g, b, conflicts, table
}

func Test_WriteOut_includesStatesAndSymbols(t *testing.T) {
	assert := assert.New(t)
	g, b, conflicts, _ := buildForReport(t)

	var buf bytes.Buffer
	err := WriteOut(&buf, g, b.States, conflicts)

	assert.NoError(err)
	out := buf.String()
	assert.Contains(out, "State 0")
	assert.Contains(out, "Symbols:")
	assert.Contains(out, "Rules:")
}

func Test_WriteOut_listsUnusedSymbols(t *testing.T) {
	assert := assert.New(t)
	tab := symtab.New()
	expr := tab.New("expr")
	num := tab.New("NUM")
	tab.New("UNUSED")

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "", []grammar.RHSSymbol{{Sym: num}}, "", 0)

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()
	conflicts := resolve.Resolve(b.States)
	resolve.Compress(b.States)

	var buf bytes.Buffer
	assert.NoError(WriteOut(&buf, g, b.States, conflicts))
	assert.Contains(buf.String(), "Unused symbols: UNUSED")
}

func Test_Gather_countsMatchBuild(t *testing.T) {
	assert := assert.New(t)
	g, b, conflicts, table := buildForReport(t)

	s := Gather(g, b.NTerminal, b.States, conflicts, table)

	assert.Equal(len(g.Rules), s.Rules)
	assert.Equal(len(b.States), s.States)
}

func Test_WriteSQL_producesInsertStatements(t *testing.T) {
	assert := assert.New(t)
	g, b, _, _ := buildForReport(t)

	var buf bytes.Buffer
	err := WriteSQL(&buf, g, b.States)

	assert.NoError(err)
	assert.Contains(buf.String(), "INSERT INTO symbol")
	assert.Contains(buf.String(), "INSERT INTO rule")
}
