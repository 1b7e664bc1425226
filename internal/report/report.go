// Package report renders the human-facing outputs of a golemon run: the
// .out file describing every state, item, and action in the automaton
// (with conflicts marked), summary statistics, and a SQL dump of the same
// data for ad hoc querying.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/resolve"
	"github.com/dekarrin/golemon/internal/symtab"
	"github.com/dekarrin/golemon/internal/util"
)

// WriteOut renders the full .out report: one block per state listing its
// items (with the dot position) and its resolved actions, terminated by the
// symbol table and the rule list, in the same general shape lemon's own
// .out file takes.
func WriteOut(w io.Writer, g *grammar.Grammar, states []*automaton.State, conflicts []resolve.Conflict) error {
	ordered := make([]*automaton.State, len(states))
	copy(ordered, states)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StateNum < ordered[j].StateNum })

	for _, s := range ordered {
		fmt.Fprintf(w, "State %d:\n", s.StateNum)
		for _, c := range s.Closure {
			fmt.Fprintf(w, "    %s\n", c.String())
		}
		for _, a := range s.Actions {
			fmt.Fprintf(w, "    %-12s %-16s %s\n", a.Lookahead.Name, a.Type.String(), actionTarget(a))
		}
		for _, gt := range s.Gotos {
			fmt.Fprintf(w, "    %-12s %-16s goto state %d\n", gt.NT.Name, "goto", gt.Target.StateNum)
		}
		if s.DefaultRule >= 0 {
			fmt.Fprintf(w, "    %-12s %-16s reduce %d\n", "default", "reduce", s.DefaultRule)
		}
		fmt.Fprintln(w)
	}

	if len(conflicts) > 0 {
		fmt.Fprintln(w, "Conflicts:")
		for _, c := range conflicts {
			fmt.Fprintf(w, "    state %d, lookahead %s: %s\n", c.State.StateNum, c.Lookahead.Name, conflictKind(c))
		}
		fmt.Fprintln(w)
	}

	writeSymbolTable(w, g)
	writeRuleList(w, g)
	writeUnusedSymbols(w, g)

	return nil
}

func writeUnusedSymbols(w io.Writer, g *grammar.Grammar) {
	unused := UnusedSymbols(g)
	if len(unused) == 0 {
		return
	}
	names := make([]string, len(unused))
	for i, s := range unused {
		names[i] = s.Name
	}
	fmt.Fprintf(w, "Unused symbols: %s declared but never used in any rule.\n\n", util.MakeTextList(names))
}

func actionTarget(a *automaton.Action) string {
	switch a.Type {
	case automaton.Shift, automaton.SHResolved:
		return fmt.Sprintf("shift to state %d", a.Target.StateNum)
	case automaton.ShiftReduce:
		return fmt.Sprintf("shift, then reduce rule %d (%s)", a.Rule.IRule, a.Rule.String())
	case automaton.Reduce, automaton.RDResolved:
		return fmt.Sprintf("reduce rule %d (%s)", a.Rule.IRule, a.Rule.String())
	case automaton.Accept:
		return "accept"
	case automaton.SSConflict:
		return fmt.Sprintf("** shift/shift conflict ** shift to state %d", a.Target.StateNum)
	case automaton.SRConflict:
		return fmt.Sprintf("** shift/reduce conflict ** reduce rule %d (%s)", a.Rule.IRule, a.Rule.String())
	case automaton.RRConflict:
		return fmt.Sprintf("** reduce/reduce conflict ** reduce rule %d (%s)", a.Rule.IRule, a.Rule.String())
	case automaton.Error:
		return "dropped (non-associative)"
	default:
		return ""
	}
}

// conflictKind labels a resolved conflict by what the two competing actions
// were, based on the type the loser was tagged with during resolution (or,
// for a non-assoc tie where both sides were dropped, the synthetic winner).
func conflictKind(c resolve.Conflict) string {
	if c.Winner.Type == automaton.Error {
		return "shift/reduce (non-associative, both dropped)"
	}
	switch c.Loser.Type {
	case automaton.SSConflict:
		return "shift/shift"
	case automaton.RRConflict:
		return "reduce/reduce"
	case automaton.SRConflict, automaton.RDResolved:
		return "shift/reduce"
	default:
		return "reduce/reduce"
	}
}

func writeSymbolTable(w io.Writer, g *grammar.Grammar) {
	fmt.Fprintln(w, "Symbols:")
	headers := []string{"#", "name", "kind", "prec", "type"}
	var rows [][]string
	for _, s := range g.Symbols.All() {
		prec := "-"
		if s.Precedence >= 0 {
			prec = fmt.Sprintf("%d", s.Precedence)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Index), s.Name, s.Kind.String(), prec, s.DataType,
		})
	}
	rendered := rosed.Edit("").
		InsertTableOpts(0, append([][]string{headers}, rows...), 20, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
	fmt.Fprintln(w, rendered)
	fmt.Fprintln(w)
}

func writeRuleList(w io.Writer, g *grammar.Grammar) {
	fmt.Fprintln(w, "Rules:")
	for _, r := range g.Rules {
		status := ""
		if r.NeverReduce {
			status = " (unused)"
		}
		fmt.Fprintf(w, "    %3d: %s%s\n", r.IRule, r.String(), status)
	}
}

// UnusedSymbols returns every terminal or non-terminal in g with a zero use
// count, excluding the start symbol, the augmented start symbol (name
// ending in "'"), and the synthetic "error"/"{default}"/end-of-input
// sentinels, for the .out report's "syntax-only symbols" section.
func UnusedSymbols(g *grammar.Grammar) []*symtab.Symbol {
	var out []*symtab.Symbol
	for _, s := range g.Symbols.All() {
		if s.UseCount == 0 && s != g.Start && s.Name != "error" && s.Name != "{default}" && s.Name != automaton.EOF && !strings.HasSuffix(s.Name, "'") {
			out = append(out, s)
		}
	}
	return out
}
