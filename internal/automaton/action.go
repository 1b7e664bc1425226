package automaton

import (
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

// ActionType classifies what a single parser action does for one (state,
// lookahead) pair, before and after conflict resolution has run.
type ActionType int

// This ordering mirrors lemon's own table.h action-type enum exactly, so
// that sort-by-type-rank in the .out report has a stable, documented
// meaning: SHIFT, ACCEPT, REDUCE, ERROR, SSCONFLICT, SRCONFLICT, RRCONFLICT,
// SH_RESOLVED, RD_RESOLVED, NOT_USED, SHIFTREDUCE.
const (
	Shift ActionType = iota
	Accept
	Reduce
	Error
	// SSConflict marks a proposed SHIFT that lost to another SHIFT on the
	// same lookahead. Two shifts can never legitimately compete for the
	// same symbol in a deterministic automaton, so seeing this at all is an
	// internal invariant failure; it is reported rather than silently
	// dropped or allowed to panic.
	SSConflict
	// SRConflict marks a shift/reduce action slot that resolve.Resolve
	// could not cleanly settle with precedence: either side was missing a
	// declared precedence, the tie was NONASSOC (both sides dropped), or
	// the tie was UNK (equal precedence, no declared associativity).
	SRConflict
	RRConflict
	// SHResolved and RDResolved mark the losing side of a shift/reduce pair
	// that precedence or associativity settled cleanly; the winner keeps
	// its original Shift/Reduce type and the loser is retained only for the
	// .out report, not counted as a conflict.
	SHResolved
	RDResolved
	// NotUsed mirrors lemon's NOT_USED action type; no pass in golemon
	// assigns it.
	NotUsed
	// ShiftReduce marks a fused action: resolve.Compress folded a SHIFT
	// whose target state does nothing but reduce into a single action that
	// does both at once, skipping the intermediate state transition.
	ShiftReduce
)

func (t ActionType) String() string {
	switch t {
	case Shift:
		return "shift"
	case Accept:
		return "accept"
	case Reduce:
		return "reduce"
	case Error:
		return "error"
	case SSConflict:
		return "shift/shift conflict"
	case SRConflict:
		return "shift/reduce conflict"
	case RRConflict:
		return "reduce/reduce conflict"
	case SHResolved:
		return "shift resolved"
	case RDResolved:
		return "reduce resolved"
	case NotUsed:
		return "not used"
	case ShiftReduce:
		return "shift-reduce"
	default:
		return "unknown"
	}
}

// Action is one entry in a state's action list: what to do when the
// lookahead symbol is Lookahead.
type Action struct {
	Lookahead *symtab.Symbol
	Type      ActionType
	Target    *State        // valid for Shift
	Rule      *grammar.Rule // valid for Reduce

	// Conflicts holds every other candidate action that was proposed for
	// the same (state, Lookahead) pair before resolution picked a winner.
	// Empty for unambiguous actions.
	Conflicts []*Action
}
