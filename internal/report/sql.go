package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
)

// WriteSQL emits a self-contained SQL script (-S) that recreates the
// grammar's symbol table, rule list, and automaton actions as three plain
// tables, so the generated parser tables can be queried or diffed with
// ordinary SQL rather than grepping the .out report.
func WriteSQL(w io.Writer, g *grammar.Grammar, states []*automaton.State) error {
	fmt.Fprintln(w, "CREATE TABLE symbol(id INTEGER PRIMARY KEY, name TEXT, kind TEXT, prec INTEGER);")
	fmt.Fprintln(w, "CREATE TABLE rule(id INTEGER PRIMARY KEY, lhs INTEGER, text TEXT);")
	fmt.Fprintln(w, "CREATE TABLE action(state INTEGER, lookahead INTEGER, kind TEXT, target INTEGER);")
	fmt.Fprintln(w)

	for _, s := range g.Symbols.All() {
		fmt.Fprintf(w, "INSERT INTO symbol VALUES (%d, %s, %s, %d);\n",
			s.Index, sqlQuote(s.Name), sqlQuote(s.Kind.String()), s.Precedence)
	}
	fmt.Fprintln(w)

	for _, r := range g.Rules {
		fmt.Fprintf(w, "INSERT INTO rule VALUES (%d, %d, %s);\n", r.IRule, r.LHS.Index, sqlQuote(r.String()))
	}
	fmt.Fprintln(w)

	for _, s := range states {
		for _, a := range s.Actions {
			target := -1
			if a.Type == automaton.Shift {
				target = a.Target.StateNum
			} else if a.Type == automaton.Reduce {
				target = a.Rule.IRule
			}
			fmt.Fprintf(w, "INSERT INTO action VALUES (%d, %d, %s, %d);\n",
				s.StateNum, a.Lookahead.Index, sqlQuote(a.Type.String()), target)
		}
	}

	return nil
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
