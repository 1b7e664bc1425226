package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/pack"
	"github.com/dekarrin/golemon/internal/resolve"
)

// Stats is the summary data printed when -s is given: a coarse sense of
// how big the grammar and its automaton turned out to be, and how many
// conflicts had to be settled, useful as a quick regression check when
// iterating on a grammar file.
type Stats struct {
	Terminals    int
	NonTerminals int
	Rules        int
	States       int
	Conflicts    int
	ActionSlots  int
	TableBytes   int
}

// Gather collects a Stats from a finished build.
func Gather(g *grammar.Grammar, nTerminal int, states []*automaton.State, conflicts []resolve.Conflict, table *pack.Table) Stats {
	nSym := len(g.Symbols.All())
	return Stats{
		Terminals:    nTerminal,
		NonTerminals: nSym - nTerminal,
		Rules:        len(g.Rules),
		States:       len(states),
		Conflicts:    len(conflicts),
		ActionSlots:  len(table.YYAction),
		TableBytes:   len(table.YYAction)*8 + len(table.YYLookahead)*8,
	}
}

// WriteStats prints a human-readable summary of s to w, using go-humanize
// to render the packed table's size the way a user expects ("3.1 kB"
// rather than a raw byte count) since that's the number most likely to
// matter when comparing two grammars or two runs of the compressor.
func WriteStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "%s terminals, %s non-terminals, %s rules\n",
		humanize.Comma(int64(s.Terminals)), humanize.Comma(int64(s.NonTerminals)), humanize.Comma(int64(s.Rules)))
	fmt.Fprintf(w, "%s states, %s conflicts\n",
		humanize.Comma(int64(s.States)), humanize.Comma(int64(s.Conflicts)))
	fmt.Fprintf(w, "packed action table: %s entries (%s)\n",
		humanize.Comma(int64(s.ActionSlots)), humanize.Bytes(uint64(s.TableBytes)))
}
