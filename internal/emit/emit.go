package emit

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/pack"
	"github.com/dekarrin/golemon/internal/symtab"
)

// DefaultTemplate is golemon's built-in code-emission template, used when
// no -T override is given. Like lemon's own lempar.c, it is split into
// sections by lines containing exactly "%%"; Emit drops those marker lines
// and hands the remaining text to text/template as one template, which
// draws every generated fragment from Data. Unlike lempar.c it emits a
// complete, runnable parser: the packed tables from internal/pack drive an
// actual shift/reduce/goto/accept/error loop, not just a per-rule
// semantic-action dispatcher.
const DefaultTemplate = `// Code generated by golemon. DO NOT EDIT.

package {{.Package}}

{{.Prologue}}

type yyMinorUnion struct {
{{range .UnionFields}}	{{.FieldName}} {{.GoType}}
{{end}}}

// Token is one input symbol handed to Parse: Major is a token constant
// declared below, Minor is its semantic value. The caller does not pass an
// end-of-input token: Parse supplies yyEOF itself after the last Token.
type Token struct {
	Major int
	Minor yyMinorUnion
}

type yyStackEntry struct {
	state int
	major int
	minor yyMinorUnion
}
%%
const (
{{range .Terminals}}	{{.Name}} = {{.Index}}
{{end}}	yyEOF = {{.EOFIndex}}
)

const (
	yyNState       = {{.NState}}
	yyNRule        = {{.NRule}}
	yyNoAction     = {{.NoAction}}
	yyErrorAction  = {{.ErrorAction}}
	yyAcceptAction = {{.AcceptAction}}
)
%%
var yyAction = []int{ {{.ActionCSV}} }
var yyLookahead = []int{ {{.LookaheadCSV}} }
var yyShiftOfst = []int{ {{.ShiftOfstCSV}} }
var yyGotoOfst = []int{ {{.GotoOfstCSV}} }
var yyDefault = []int{ {{.DefaultCSV}} }
var yyFallback = []int{ {{.FallbackCSV}} }

type yyRuleInfoEntry struct {
	lhs  int
	nrhs int
}

var yyRuleInfo = []yyRuleInfoEntry{
{{range .Rules}}	{ {{.LHSIndex}}, {{.NRHS}} },
{{end}}}

var yyRuleText = []string{
{{range .Rules}}	{{.QuotedText}},
{{end}}}
%%
{{range .Rules}}func {{.FuncName}}(yymsp []yyStackEntry) (yygotominor yyMinorUnion) {
{{if .Code}}	{{.Code}}
{{end}}	return
}
{{end}}
func yyReduce(yyruleno int, yymsp []yyStackEntry) yyMinorUnion {
	switch yyruleno {
{{range .Rules}}	case {{.IRule}}:
		return {{.FuncName}}(yymsp)
{{end}}	}
	panic("golemon: unknown rule number")
}
%%
// yyParser holds the state/symbol/value stack a single Parse call drives
// from its initial state (state 0, nothing shifted) through to accept or a
// syntax error.
type yyParser struct {
	stack []yyStackEntry
}

func newYYParser() *yyParser {
	return &yyParser{stack: []yyStackEntry{ {state: 0} }}
}

func (p *yyParser) top() *yyStackEntry {
	return &p.stack[len(p.stack)-1]
}

func (p *yyParser) shift(state, major int, minor yyMinorUnion) {
	p.stack = append(p.stack, yyStackEntry{state: state, major: major, minor: minor})
}

// reduceAndGoto pops the RHS of rule ruleno off the stack, computes its
// semantic value, and pushes the resulting LHS symbol using the goto table
// of the state now exposed on top of the stack.
func (p *yyParser) reduceAndGoto(ruleno int) error {
	info := yyRuleInfo[ruleno]
	base := len(p.stack) - info.nrhs
	yygotominor := yyReduce(ruleno, p.stack[base:])
	p.stack = p.stack[:base]

	fromState := p.top().state
	toState, ok := yyGotoLookup(fromState, info.lhs)
	if !ok {
		return fmt.Errorf("golemon: no goto for state %d on symbol %d (rule %d: %s)", fromState, info.lhs, ruleno, yyRuleText[ruleno])
	}
	p.shift(toState, info.lhs, yygotominor)
	return nil
}

// yyActionLookup reports the raw table entry stored for (state, symbol) in
// the shared packed array at the given axis offset, without any fallback
// or default substitution.
func yyActionLookup(ofst, symbol int) (int, bool) {
	if ofst == -1 {
		return 0, false
	}
	slot := ofst + symbol
	if slot < 0 || slot >= len(yyAction) || yyLookahead[slot] != symbol {
		return 0, false
	}
	return yyAction[slot], true
}

func yyGotoLookup(state, nt int) (int, bool) {
	return yyActionLookup(yyGotoOfst[state], nt)
}

// yyFindAction resolves the action for (state, token), following the
// %fallback chain when the token itself has no entry and the state's
// default action is an error: each fallback terminal is tried in turn
// until one resolves to a real action or the chain runs out.
func yyFindAction(state, token int) int {
	for {
		if action, ok := yyActionLookup(yyShiftOfst[state], token); ok {
			return action
		}
		def := yyDefault[state]
		if def != yyErrorAction {
			return def
		}
		fb := yyFallback[token]
		if fb < 0 || fb == token {
			return def
		}
		token = fb
	}
}

// Parse drives tokens through the shift/reduce/goto/accept loop and
// returns the semantic value the start symbol reduced to, or an error
// describing the state and token a syntax error was detected at. The caller
// need not append an explicit end-of-input token: once tokens is exhausted,
// Parse synthesizes yyEOF for as long as the grammar keeps reducing on it.
func Parse(tokens []Token) (yyMinorUnion, error) {
	p := newYYParser()
	pos := 0

	for {
		var tok Token
		if pos < len(tokens) {
			tok = tokens[pos]
		} else {
			tok = Token{Major: yyEOF}
		}

		action := yyFindAction(p.top().state, tok.Major)
		switch {
		case action >= 0 && action < yyNState:
			p.shift(action, tok.Major, tok.Minor)
			pos++
		case action >= yyNState && action < yyNState+yyNRule:
			if err := p.reduceAndGoto(action - yyNState); err != nil {
				return yyMinorUnion{}, err
			}
		case action == yyAcceptAction:
			return p.top().minor, nil
		default:
			return yyMinorUnion{}, fmt.Errorf("golemon: syntax error at token %d in state %d", tok.Major, p.top().state)
		}
	}
}
%%
{{.Epilogue}}
`

// RuleData is the per-rule view the template ranges over in its reduce
// dispatcher, per-rule function, and runtime-table sections.
type RuleData struct {
	IRule      int
	FuncName   string
	Code       string
	LHSName    string
	LHSIndex   int
	NRHS       int
	QuotedText string
}

// TerminalData is the per-terminal view used for the token constant block.
type TerminalData struct {
	Name  string
	Index int
}

// Data is everything the default template (or a well-behaved override)
// needs to render a complete generated parser file.
type Data struct {
	Package  string
	Prologue string
	Epilogue string

	UnionFields []UnionField
	Terminals   []TerminalData
	EOFIndex    int

	NState int
	NRule  int

	NoAction     int
	ErrorAction  int
	AcceptAction int

	ActionCSV    string
	LookaheadCSV string
	ShiftOfstCSV string
	GotoOfstCSV  string
	DefaultCSV   string
	FallbackCSV  string

	Rules []RuleData
}

// BuildData assembles the template Data for g's rules from the finished,
// packed action table produced earlier in the pipeline.
func BuildData(pkg, prologue, epilogue string, g *grammar.Grammar, eofIndex int, table *pack.Table) Data {
	fields := AssignDataTypes(g)

	d := Data{
		Package:      pkg,
		Prologue:     prologue,
		Epilogue:     epilogue,
		UnionFields:  fields,
		EOFIndex:     eofIndex,
		NState:       table.NState,
		NRule:        table.NRule,
		NoAction:     -1,
		ErrorAction:  -2,
		AcceptAction: -3,
	}

	for _, s := range g.Symbols.All() {
		if s.Kind == symtab.Terminal && s.Index != eofIndex {
			d.Terminals = append(d.Terminals, TerminalData{Name: s.Name, Index: s.Index})
		}
	}

	d.ActionCSV = csvInts(table.YYAction)
	d.LookaheadCSV = csvInts(table.YYLookahead)
	d.ShiftOfstCSV = csvInts(table.ShiftOfst)
	d.GotoOfstCSV = csvInts(table.GotoOfst)
	d.DefaultCSV = csvInts(table.Default)
	d.FallbackCSV = csvInts(table.Fallback)

	for _, r := range g.Rules {
		d.Rules = append(d.Rules, RuleData{
			IRule:      r.IRule,
			FuncName:   ReduceFuncName(r),
			Code:       TranslateAction(r),
			LHSName:    r.LHS.Name,
			LHSIndex:   r.LHS.Index,
			NRHS:       len(r.RHS),
			QuotedText: fmt.Sprintf("%q", r.String()),
		})
	}

	return d
}

func csvInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

// Emit merges tmplSrc's sections with data and writes the final generated
// source to w. Sections are separated by lines containing exactly "%%",
// mirroring lemon's own lempar.c convention; golemon's default template
// uses them purely as human-readable dividers between the declarations,
// tables, and reduce-action parts of the file; a custom template is free to
// do the same or ignore them and write one unbroken section.
func Emit(w io.Writer, tmplSrc string, data Data) error {
	merged := stripSectionMarkers(tmplSrc)

	t, err := template.New("golemon").Parse(merged)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return t.Execute(w, data)
}

func stripSectionMarkers(src string) string {
	lines := strings.Split(src, "\n")
	out := lines[:0:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "%%" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
