package grammar

import (
	"fmt"

	"github.com/dekarrin/golemon/internal/bitset"
)

// Config is a single LR item: a rule together with a dot position marking
// how much of the RHS has been matched so far, plus the forward
// (lookahead) set the LALR(1) construction accumulates for it. Config
// identity for deduplication purposes is the (Rule, Dot) pair alone — two
// Configs with the same core but different states are never the same
// object, by design, since LALR merges states by core but each state's
// copy of an item has its own Forward set.
type Config struct {
	Rule *Rule
	Dot  int

	// Forward is this item's lookahead set, populated by the automaton
	// builder's closure/FindFollowSets passes.
	Forward *bitset.Set

	// Propagate holds the other Configs (generally, but not only, in other
	// states) whose Forward set must receive this one's Forward set
	// whenever it changes. Built once during FindStates/FindLinks and
	// walked repeatedly by FindFollowSets until the pass is stable.
	Propagate []*Config
}

// NewConfig returns a new Config over rule at dot position dot, with an
// empty forward set sized for nTerminal terminals.
func NewConfig(rule *Rule, dot int, nTerminal int) *Config {
	return &Config{Rule: rule, Dot: dot, Forward: bitset.New(nTerminal)}
}

// AtEnd reports whether the dot has reached the end of the rule's RHS,
// i.e. this item calls for a reduce (or accept).
func (c *Config) AtEnd() bool {
	return c.Dot >= len(c.Rule.RHS)
}

// NextSymbol returns the symbol immediately after the dot, or nil if the
// item is at the end.
func (c *Config) NextSymbol() *RHSSymbol {
	if c.AtEnd() {
		return nil
	}
	return &c.Rule.RHS[c.Dot]
}

// Beta returns the RHS symbols after the one immediately following the dot
// (i.e. everything past the symbol that closure would be expanding), used
// when computing FIRST(beta) for spontaneous lookahead generation.
func (c *Config) Beta() []RHSSymbol {
	if c.Dot+1 >= len(c.Rule.RHS) {
		return nil
	}
	return c.Rule.RHS[c.Dot+1:]
}

// CoreKey returns a string uniquely identifying this item's (Rule, Dot)
// core, ignoring its lookahead set, suitable as a map key for deduplicating
// items within a single closure or hashing a state's kernel basis.
func (c *Config) CoreKey() string {
	return fmt.Sprintf("%d.%d", c.Rule.IRule, c.Dot)
}

// String renders the item in "LHS ::= a b . c d" form for reports.
func (c *Config) String() string {
	s := c.Rule.LHS.Name + " ::= "
	for i, rs := range c.Rule.RHS {
		if i == c.Dot {
			s += ". "
		}
		s += rs.Sym.Name + " "
	}
	if c.AtEnd() {
		s += "."
	}
	return s
}
