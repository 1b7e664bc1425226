// Package pack flattens a resolved, compressed automaton into the dense
// arrales a generated table-driven parser actually indexes at runtime: one
// shared yy_action/yy_lookahead pair serving two axes (per-state token
// actions, and per-state non-terminal gotos), with one offset per state per
// axis pointing into it. This is the classic lemon technique: rather than
// one action row per state (mostly error entries, since a typical state
// only has actions for a handful of lookaheads), every state's sparse row
// is slid into a single shared array at whatever offset makes it not
// collide with any row already placed, so that rows with disjoint
// lookahead/non-terminal sets overlap for free. Token rows and goto rows
// share the same array and occupancy map; they never collide with each
// other because terminal and non-terminal symbol indices are disjoint
// ranges.
package pack

import (
	"github.com/dekarrin/golemon/internal/automaton"
)

// Action codes in [0, NState) are shifts to that state, codes in
// [NState, NState+NRule) are reduces (code - NState is the rule number);
// the three negative sentinels below are fixed regardless of grammar size.
const (
	noAction  = -1 // unoccupied slot in the packed array
	errAction = -2 // explicit parse error
	accAction = -3 // accept
)

// Table is the packed representation of an automaton's action and goto
// tables.
type Table struct {
	// NState is the number of shift-addressable states (StateNum 0..NState-1).
	NState int
	// NRule is the number of grammar rules (reduce action codes are
	// NState-biased: IsReduce(code) reports a reduce of rule index
	// code-NState when code is in [NState, NState+NRule)).
	NRule int

	// YYAction and YYLookahead are parallel arrays shared by both axes:
	// YYLookahead[i] records which terminal or non-terminal's entry is
	// stored at YYAction[i], so that a lookup at an axis offset plus a
	// symbol index can be rejected as a collision with another row when the
	// symbol stored there doesn't match.
	YYAction    []int
	YYLookahead []int

	// ShiftOfst[s] is the base offset into YYAction/YYLookahead for state
	// s's token-driven row (shift/reduce/accept, keyed by terminal index),
	// or noOffset if state s has no non-default token actions at all.
	ShiftOfst []int

	// GotoOfst[s] is the base offset into YYAction/YYLookahead for state s's
	// non-terminal row (keyed by non-terminal index, valued with the target
	// state to move to after a reduce pushes that non-terminal), or
	// noOffset if state s has no gotos.
	GotoOfst []int

	// Default[s] is the action to take when no entry in state s's token row
	// matches the current lookahead: either a rule number to reduce
	// (>= 0, biased by NState same as YYAction) or errAction.
	Default []int

	// Fallback[t] is the terminal index that a failed lookup on terminal t
	// should retry with instead (declared in the grammar with %fallback),
	// or -1 if t has no fallback.
	Fallback []int
}

const noOffset = -1

// entry is one (symbol index, action code) pair belonging to a single
// state's row, prior to placement.
type entry struct {
	term int
	code int
}

// Build packs the action and goto tables of states (already resolved and
// compressed) into a Table. States must have final StateNum assignments
// (i.e. resolve.Compress's ResortStates must already have run). nRule is
// the grammar's total rule count, needed to bias reduce action codes above
// the shift/state code range. fallback is indexed by terminal index and
// holds each terminal's %fallback target (or -1); pass nil if the grammar
// declares none.
func Build(states []*automaton.State, nTerminal, nRule int, fallback []int) *Table {
	t := &Table{
		NState:    len(states),
		NRule:     nRule,
		ShiftOfst: make([]int, len(states)),
		GotoOfst:  make([]int, len(states)),
		Default:   make([]int, len(states)),
		Fallback:  make([]int, nTerminal),
	}
	for i := range t.ShiftOfst {
		t.ShiftOfst[i] = noOffset
		t.GotoOfst[i] = noOffset
	}
	for i := range t.Fallback {
		t.Fallback[i] = -1
	}
	copy(t.Fallback, fallback)

	tokenRows := make([][]entry, len(states))
	gotoRows := make([][]entry, len(states))
	for _, s := range states {
		tokenRows[s.StateNum] = buildTokenRow(s, t.NState)
		gotoRows[s.StateNum] = buildGotoRow(s)
		t.Default[s.StateNum] = defaultCode(s, t.NState)
	}

	occupied := make(map[int]int) // slot -> symbol index stored there

	for _, s := range states {
		row := tokenRows[s.StateNum]
		if len(row) == 0 {
			continue
		}
		t.ShiftOfst[s.StateNum] = place(&t.YYAction, &t.YYLookahead, row, occupied)
	}
	for _, s := range states {
		row := gotoRows[s.StateNum]
		if len(row) == 0 {
			continue
		}
		t.GotoOfst[s.StateNum] = place(&t.YYAction, &t.YYLookahead, row, occupied)
	}

	return t
}

// place first-fits row into the shared array, recording each slot it
// claims in occupied, and returns the offset it was placed at.
func place(action, lookahead *[]int, row []entry, occupied map[int]int) int {
	ofst := firstFit(row, occupied)
	for _, e := range row {
		slot := ofst + e.term
		occupied[slot] = e.term
		growTo(action, slot, noAction)
		growTo(lookahead, slot, -1)
		(*action)[slot] = e.code
		(*lookahead)[slot] = e.term
	}
	return ofst
}

func buildTokenRow(s *automaton.State, nState int) []entry {
	var row []entry
	for _, a := range s.Actions {
		var code int
		switch a.Type {
		case automaton.Shift:
			code = a.Target.StateNum
		case automaton.Reduce, automaton.ShiftReduce:
			code = nState + a.Rule.IRule
		case automaton.Accept:
			code = accAction
		default:
			continue
		}
		row = append(row, entry{term: a.Lookahead.Index, code: code})
	}
	return row
}

func buildGotoRow(s *automaton.State) []entry {
	var row []entry
	for _, g := range s.Gotos {
		row = append(row, entry{term: g.NT.Index, code: g.Target.StateNum})
	}
	return row
}

func defaultCode(s *automaton.State, nState int) int {
	if s.DefaultRule >= 0 {
		return nState + s.DefaultRule
	}
	return errAction
}

// firstFit finds the smallest non-negative offset at which every entry in
// row can be placed into the shared array without colliding with a
// different symbol already occupying that slot. This is the same first-fit
// bin-packing lemon itself uses: offsets are tried starting from zero
// (after the convention that offsets may be negative for entirely
// negative-indexed rows is skipped here since golemon's symbol indices
// start at zero).
func firstFit(row []entry, occupied map[int]int) int {
	for ofst := 0; ; ofst++ {
		if fits(row, occupied, ofst) {
			return ofst
		}
	}
}

func fits(row []entry, occupied map[int]int, ofst int) bool {
	for _, e := range row {
		slot := ofst + e.term
		if slot < 0 {
			return false
		}
		if existing, ok := occupied[slot]; ok && existing != e.term {
			return false
		}
	}
	return true
}

func growTo(s *[]int, idx int, fill int) {
	if idx < len(*s) {
		return
	}
	old := len(*s)
	grown := make([]int, idx+1)
	copy(grown, *s)
	for i := old; i <= idx; i++ {
		grown[i] = fill
	}
	*s = grown
}

// ActionAt reports the action code stored for (state, terminal), verifying
// the shared-array slot actually belongs to that state's token row (by
// checking YYLookahead) rather than to some other row that happens to
// overlap at the same offset for a different symbol. It returns the
// state's Default if the slot is unoccupied, out of range, or claimed by a
// different terminal.
func (t *Table) ActionAt(state, terminal int) int {
	ofst := t.ShiftOfst[state]
	if ofst == noOffset {
		return t.Default[state]
	}
	slot := ofst + terminal
	if slot < 0 || slot >= len(t.YYAction) || t.YYLookahead[slot] != terminal {
		return t.Default[state]
	}
	return t.YYAction[slot]
}

// GotoAt reports the state to move to after a reduce pushes non-terminal nt
// while state is on top of the stack, and whether such a goto exists. A
// reachable grammar should always have one for every non-terminal a reduce
// in that context can actually produce; the ok result exists for the
// generated driver to detect a packing bug rather than index out of range.
func (t *Table) GotoAt(state, nt int) (target int, ok bool) {
	ofst := t.GotoOfst[state]
	if ofst == noOffset {
		return 0, false
	}
	slot := ofst + nt
	if slot < 0 || slot >= len(t.YYAction) || t.YYLookahead[slot] != nt {
		return 0, false
	}
	return t.YYAction[slot], true
}

// IsShift reports whether code (as returned by ActionAt) is a shift to
// another state, and if so which one.
func (t *Table) IsShift(code int) (state int, ok bool) {
	if code >= 0 && code < t.NState {
		return code, true
	}
	return 0, false
}

// IsReduce reports whether code is a reduce of a rule, and if so which one.
func (t *Table) IsReduce(code int) (rule int, ok bool) {
	if code >= t.NState && code < t.NState+t.NRule {
		return code - t.NState, true
	}
	return 0, false
}

// IsAccept reports whether code is the accept action.
func (t *Table) IsAccept(code int) bool { return code == accAction }

// IsError reports whether code is the explicit-error action.
func (t *Table) IsError(code int) bool { return code == errAction }
