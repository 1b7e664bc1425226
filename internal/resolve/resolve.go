// Package resolve turns the raw, possibly-ambiguous action lists the
// automaton builder produces (a state can propose both a shift and a
// reduce, or two different reduces, for the same lookahead) into a single
// winning action per (state, lookahead) pair, using declared operator
// precedence and associativity exactly the way a classic yacc-family tool
// does it. It also compresses the resulting tables: each state's most
// frequent reduce becomes its default action, and states are renumbered so
// that ones with the same action shape sit next to each other.
package resolve

import (
	"sort"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/symtab"
)

// Conflict records one shift/reduce, reduce/reduce, or shift/shift
// disambiguation the resolver could not settle cleanly: either side missing
// a declared precedence, an equal-precedence tie with a NONASSOC or
// undeclared associativity, two reduce candidates, or two shift candidates.
// A clean win by differing precedence or a declared LEFT/RIGHT
// associativity is not a conflict and never appears here.
type Conflict struct {
	State        *automaton.State
	Lookahead    *symtab.Symbol
	Winner       *automaton.Action
	Loser        *automaton.Action
	ByPrecedence bool
}

// Resolve walks every state's action list, groups actions by lookahead
// symbol, and for any lookahead with more than one candidate action picks a
// single winning action using declared precedence/associativity. An Accept
// wins outright and keeps nothing; otherwise the loser of a disambiguation
// is retained on the winner's Conflicts (tagged
// SHResolved/RDResolved/SRConflict/RRConflict/SSConflict, as the .out
// report shows), but the slice Resolve returns holds only the
// disambiguations that count toward the unresolved-conflict total.
func Resolve(states []*automaton.State) []Conflict {
	var conflicts []Conflict

	for _, s := range states {
		byLookahead := make(map[*symtab.Symbol][]*automaton.Action)
		var order []*symtab.Symbol
		for _, a := range s.Actions {
			if _, ok := byLookahead[a.Lookahead]; !ok {
				order = append(order, a.Lookahead)
			}
			byLookahead[a.Lookahead] = append(byLookahead[a.Lookahead], a)
		}

		var resolved []*automaton.Action
		for _, la := range order {
			candidates := byLookahead[la]
			if len(candidates) == 1 {
				resolved = append(resolved, candidates[0])
				continue
			}

			winner := candidates[0]
			for _, cand := range candidates[1:] {
				res := pick(winner, cand)
				winner = res.winner
				if res.isConflict {
					conflicts = append(conflicts, Conflict{
						State: s, Lookahead: la, Winner: res.winner, Loser: res.loser, ByPrecedence: res.byPrecedence,
					})
				}
			}
			resolved = append(resolved, winner)
		}

		sort.Slice(resolved, func(i, j int) bool {
			return resolved[i].Lookahead.Index < resolved[j].Lookahead.Index
		})
		s.Actions = resolved
	}

	return conflicts
}

// resolution is the outcome of disambiguating a single pair of actions on
// the same lookahead.
type resolution struct {
	winner       *automaton.Action
	loser        *automaton.Action
	isConflict   bool
	byPrecedence bool
}

// pick chooses between two conflicting actions on the same lookahead. It
// tags the losing action with the resolution-kind ActionType the .out
// report uses and reports whether the pair counts toward the
// unresolved-conflict total.
func pick(a, b *automaton.Action) resolution {
	if a.Type == automaton.Accept {
		return resolution{winner: a, loser: b}
	}
	if b.Type == automaton.Accept {
		return resolution{winner: b, loser: a}
	}

	if a.Type == automaton.Shift && b.Type == automaton.Shift {
		return pickShiftShift(a, b)
	}

	shift, reduce := classify(a, b)
	if shift != nil && reduce != nil {
		return pickShiftReduce(shift, reduce)
	}

	return pickReduceReduce(a, b)
}

func classify(a, b *automaton.Action) (shift, reduce *automaton.Action) {
	if a.Type == automaton.Shift {
		shift = a
	} else if a.Type == automaton.Reduce {
		reduce = a
	}
	if b.Type == automaton.Shift {
		shift = b
	} else if b.Type == automaton.Reduce {
		reduce = b
	}
	return shift, reduce
}

// pickShiftShift handles two SHIFT actions proposed for the same lookahead.
// A deterministic automaton never legitimately produces this; it is an
// internal invariant failure, reported as SSConflict rather than risking a
// nil-pointer dereference by falling into the reduce/reduce path (whose
// Rule field is nil on a Shift action).
func pickShiftShift(a, b *automaton.Action) resolution {
	b.Type = automaton.SSConflict
	a.Conflicts = append(a.Conflicts, b)
	return resolution{winner: a, loser: b, isConflict: true}
}

// pickReduceReduce keeps the rule declared earliest in the grammar (the
// smaller IRule); there is no precedence mechanism for reduce/reduce ties,
// so this is always reported as a conflict.
func pickReduceReduce(a, b *automaton.Action) resolution {
	winner, loser := a, b
	if b.Rule.IRule < a.Rule.IRule {
		winner, loser = b, a
	}
	loser.Type = automaton.RRConflict
	winner.Conflicts = append(winner.Conflicts, loser)
	return resolution{winner: winner, loser: loser, isConflict: true}
}

// pickShiftReduce applies the classic yacc precedence rules: higher
// precedence wins outright; an equal-precedence tie defers to the shift
// terminal's declared associativity (LEFT favors the reduce, RIGHT favors
// the shift); a NONASSOC tie drops both actions since the grammar means for
// that operator to never chain; and missing precedence on either side, or
// an UNK (undeclared) associativity at equal precedence, is resolved by
// preferring the shift but still counted as an unresolved conflict.
func pickShiftReduce(shift, reduce *automaton.Action) resolution {
	shiftSym := shift.Lookahead
	reduceSym := reduce.Rule.Precedence

	missing := reduceSym == nil || shiftSym.Precedence < 0 || reduceSym.Precedence < 0
	if missing {
		reduce.Type = automaton.SRConflict
		shift.Conflicts = append(shift.Conflicts, reduce)
		return resolution{winner: shift, loser: reduce, isConflict: true}
	}

	switch {
	case reduceSym.Precedence > shiftSym.Precedence:
		shift.Type = automaton.SHResolved
		reduce.Conflicts = append(reduce.Conflicts, shift)
		return resolution{winner: reduce, loser: shift, byPrecedence: true}
	case reduceSym.Precedence < shiftSym.Precedence:
		reduce.Type = automaton.RDResolved
		shift.Conflicts = append(shift.Conflicts, reduce)
		return resolution{winner: shift, loser: reduce, byPrecedence: true}
	default:
		switch shiftSym.Assoc {
		case symtab.AssocLeft:
			shift.Type = automaton.SHResolved
			reduce.Conflicts = append(reduce.Conflicts, shift)
			return resolution{winner: reduce, loser: shift, byPrecedence: true}
		case symtab.AssocRight:
			reduce.Type = automaton.RDResolved
			shift.Conflicts = append(shift.Conflicts, reduce)
			return resolution{winner: shift, loser: reduce, byPrecedence: true}
		case symtab.AssocNonAssoc:
			return pickNonAssoc(shift, reduce)
		default: // AssocUnknown: precedence ties but no associativity was
			// ever declared between the two; default to shift but flag it.
			reduce.Type = automaton.SRConflict
			shift.Conflicts = append(shift.Conflicts, reduce)
			return resolution{winner: shift, loser: reduce, isConflict: true}
		}
	}
}

// pickNonAssoc implements the NONASSOC tie rule: a non-associative operator
// used twice in a row (e.g. "a < b < c") is a grammar error at parse time,
// not an ambiguity to silently break one way or the other, so both
// candidate actions are dropped in favor of an explicit Error action.
func pickNonAssoc(shift, reduce *automaton.Action) resolution {
	dropped := &automaton.Action{Lookahead: shift.Lookahead, Type: automaton.Error}
	shift.Type = automaton.SRConflict
	reduce.Type = automaton.SRConflict
	dropped.Conflicts = append(dropped.Conflicts, shift, reduce)
	return resolution{winner: dropped, loser: reduce, isConflict: true}
}
