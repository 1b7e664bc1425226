package emit

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

func buildSimpleTable(t *testing.T) (*grammar.Grammar, *pack.Table, int) {
	t.Helper()
	tab := symtab.New()
	expr := tab.New("expr")
	num := tab.New("NUM")
	expr.DataType = "int"
	num.DataType = "int"

	g := grammar.New(tab)
	g.Start = expr
	g.AddRule(expr, "A", []grammar.RHSSymbol{{Sym: num, Alias: "B"}}, "A = B", 1)
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

	table := pack.Build(b.States, b.NTerminal, nRule, nil)
	return g, table, b.EOFSymbol.Index
}

func Test_AssignDataTypes_dedupesSameType(t *testing.T) {
	assert := assert.New(t)
	g, _, _ := buildSimpleTable(t)

	fields := AssignDataTypes(g)

	assert.Len(fields, 1)
	assert.Equal("int", fields[0].GoType)
}

func Test_TranslateAction_substitutesAliases(t *testing.T) {
	assert := assert.New(t)
	g, _, _ := buildSimpleTable(t)
	AssignDataTypes(g)

	r := g.Rules[0]
	translated := TranslateAction(r)

	assert.Contains(translated, "yygotominor.yy0")
	assert.Contains(translated, "yymsp[0].minor.yy0")
}

func Test_Emit_producesParsableGoLikeOutput(t *testing.T) {
	assert := assert.New(t)
	g, table, eofIdx := buildSimpleTable(t)
	AssignDataTypes(g)
	data := BuildData("mygrammar", "", "", g, eofIdx, table)

	var buf bytes.Buffer
	err := Emit(&buf, DefaultTemplate, data)

	assert.NoError(err)
	out := buf.String()
	assert.Contains(out, "package mygrammar")
	assert.NotContains(out, "%%")
}

func Test_Emit_includesRuntimeParserDriver(t *testing.T) {
	assert := assert.New(t)
	g, table, eofIdx := buildSimpleTable(t)
	AssignDataTypes(g)
	data := BuildData("mygrammar", "", "", g, eofIdx, table)

	var buf bytes.Buffer
	err := Emit(&buf, DefaultTemplate, data)

	assert.NoError(err)
	out := buf.String()
	assert.Contains(out, "func Parse(tokens []Token)")
	assert.Contains(out, "func yyFindAction(")
	assert.Contains(out, "yyGotoOfst")
	assert.Contains(out, "yyFallback")
	assert.Contains(out, "yyEOF = ")
}
