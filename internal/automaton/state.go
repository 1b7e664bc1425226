package automaton

import (
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

// Goto is a single post-reduce transition: seeing NT freshly pushed onto
// the stack by a reduce, move to Target.
type Goto struct {
	NT     *symtab.Symbol
	Target *State
}

// State is one node of the LALR(1) viable-prefix automaton: a set of items
// closed under the grammar's productions (Closure), of which a subset
// (Basis) are the kernel items that determine the state's identity for
// state-merging purposes.
type State struct {
	// ID is assigned in construction order and never changes; StateNum is
	// the final, possibly different, number assigned by resolve's
	// ResortStates pass (states other than the start state are renumbered
	// so that ones with the same lookahead/action-type shape end up
	// adjacent).
	ID       int
	StateNum int

	Basis   []*grammar.Config
	Closure []*grammar.Config

	// Actions is driven by the lookahead terminal on top of the input: the
	// shift/reduce/accept/error decisions the packer places on the token
	// axis of the action table.
	Actions []*Action

	// Gotos is driven by the non-terminal a reduce just pushed onto the
	// stack: after popping a rule's RHS and computing its semantic value,
	// the driver looks up the resulting state here by the rule's LHS
	// symbol. These occupy the packer's separate non-terminal axis and
	// never participate in conflict resolution (a state can have at most
	// one goto per non-terminal by construction).
	Gotos []*Goto

	// DefaultRule is the rule number the compressor has chosen as this
	// state's fallback reduce (used when no explicit action matches the
	// lookahead), or -1 if the state has no default. DefaultRuleObj is the
	// same rule by reference, kept alongside the number since compression
	// can strip every explicit Reduce action naming it, leaving the number
	// as the row's only other record of which rule it was.
	DefaultRule    int
	DefaultRuleObj *grammar.Rule

	// AutoReduce is set by resolve.Compress when default-reduce fusion
	// leaves the state with no explicit token actions, so that its default
	// rule applies on every lookahead.
	AutoReduce bool
}

func newState(id int, basis []*grammar.Config) *State {
	return &State{ID: id, StateNum: id, Basis: basis, DefaultRule: -1}
}

// GotoFor returns this state's transition target on non-terminal nt, if
// any.
func (s *State) GotoFor(nt *symtab.Symbol) (*State, bool) {
	for _, g := range s.Gotos {
		if g.NT == nt {
			return g.Target, true
		}
	}
	return nil, false
}

// basisConfig returns the basis item with the given (rule, dot) core, or
// nil if no such item is in this state's basis.
func (s *State) basisConfig(r *grammar.Rule, dot int) *grammar.Config {
	for _, c := range s.Basis {
		if c.Rule == r && c.Dot == dot {
			return c
		}
	}
	return nil
}
