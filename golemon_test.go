package golemon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

const calcGrammar = `
%token_type { int }
%left PLUS MINUS .
%left STAR SLASH .

program ::= expr(A). { fmt.Println(A) }
expr(A) ::= expr(B) PLUS expr(C). { A = B + C }
expr(A) ::= expr(B) MINUS expr(C). { A = B - C }
expr(A) ::= expr(B) STAR expr(C). { A = B * C }
expr(A) ::= expr(B) SLASH expr(C). { A = B / C }
expr(A) ::= NUM(B). { A = B }
`

func Test_Generator_Generate_endToEnd(t *testing.T) {
	assert := assert.New(t)

	gen := New(Options{Package: "calc", Compress: true})

	var buf bytes.Buffer
	res, errs, err := gen.Generate(&buf, "calc.y", calcGrammar)

	assert.Empty(errs)
	assert.NoError(err)
	assert.NotNil(res)
	assert.Empty(res.Conflicts, "declared left-associative precedence should resolve every shift/reduce tie in the classic dangling arithmetic grammar cleanly")

	out := buf.String()
	assert.Contains(out, "package calc")
	assert.Contains(out, "yyAction")
}

func Test_Generator_Parse_reportsUndeclaredNonTerminal(t *testing.T) {
	assert := assert.New(t)

	gen := New(Options{})
	_, errs := gen.Parse("bad.y", "program ::= missing.\n")

	assert.NotEmpty(errs)
}

func Test_Generator_Build_rejectsEmptyGrammar(t *testing.T) {
	assert := assert.New(t)

	gen := New(Options{})
	g, _ := gen.Parse("empty.y", "%token_type { int }\n")

	_, err := gen.Build(g)
	assert.Error(err)
}
