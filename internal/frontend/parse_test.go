package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/golemon/internal/symtab"
)

const calcGrammar = `
%token_type { int }
%left PLUS MINUS .
%left STAR SLASH .

expr(A) ::= expr(B) PLUS expr(C). { A = B + C }
expr(A) ::= expr(B) STAR expr(C). { A = B * C }
expr(A) ::= NUM(B). { A = B }
`

func Test_Parse_buildsRulesAndPrecedence(t *testing.T) {
	assert := assert.New(t)

	g, errs := Parse("calc.y", Preprocess(calcGrammar, nil))
	assert.Empty(errs)
	assert.Len(g.Rules, 3)

	plus, ok := g.Symbols.Lookup("PLUS")
	assert.True(ok)
	assert.Equal(symtab.Terminal, plus.Kind)
	assert.Equal(1, plus.Precedence)

	star, ok := g.Symbols.Lookup("STAR")
	assert.True(ok)
	assert.Equal(2, star.Precedence)

	expr, ok := g.Symbols.Lookup("expr")
	assert.True(ok)
	assert.Equal(symtab.NonTerminal, expr.Kind)
}

func Test_Parse_reportsMissingDotAsError(t *testing.T) {
	assert := assert.New(t)

	g, errs := Parse("bad.y", "expr ::= NUM\n")
	assert.NotEmpty(errs)
	assert.NotNil(g)
}

func Test_Parse_fusesPipedTerminalsIntoMultiTerminal(t *testing.T) {
	assert := assert.New(t)

	src := `
expr(A) ::= expr(B) PLUS|MINUS(C) expr(D). { A = B }
expr(A) ::= NUM(B). { A = B }
`
	g, errs := Parse("multi.y", Preprocess(src, nil))
	assert.Empty(errs)

	op := g.Rules[0].RHS[1].Sym
	assert.Equal(symtab.MultiTerminal, op.Kind)
	assert.Equal("PLUS|MINUS", op.Name)
	assert.Len(op.SubSymbols, 2)
}

func Test_Parse_neverReduceMarkerSetsFlag(t *testing.T) {
	assert := assert.New(t)

	src := "errExpr ::= error NUM. {NEVER-REDUCE}\nexpr ::= NUM.\n"
	g, errs := Parse("nr.y", Preprocess(src, nil))
	assert.Empty(errs)
	assert.True(g.Rules[0].NeverReduce)
	assert.Empty(g.Rules[0].Code)
}

func Test_Parse_trailingCodeBlockAttachesToPreviousRule(t *testing.T) {
	assert := assert.New(t)

	src := "expr ::= NUM.\n{ fmt.Println(\"reduced\") }\n"
	g, errs := Parse("trailing.y", Preprocess(src, nil))
	assert.Empty(errs)
	assert.Contains(g.Rules[0].Code, "reduced")
}

func Test_Preprocess_stripsCommentsAndConditionals(t *testing.T) {
	assert := assert.New(t)

	src := "// a comment\nexpr ::= NUM. /* block */\n%ifdef DEBUG\nfoo ::= BAR.\n%endif\n"
	out := Preprocess(src, map[string]bool{"DEBUG": false})

	assert.NotContains(out, "a comment")
	assert.NotContains(out, "foo ::=")
	assert.Contains(out, "expr ::= NUM.")
}
