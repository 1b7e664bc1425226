package resolve

import (
	"sort"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

// Compress runs the three classic lemon table-shrinking passes over an
// already-resolved state set, in order:
//
//  1. Default-reduce fusion: find the reduce rule used most often in a
//     state, make it that state's DefaultRule, and drop its individual
//     per-lookahead reduce actions (the generated driver falls back to
//     DefaultRule when no other action matches). If nothing else is left
//     in the state afterward, it becomes a pure auto-reduce state.
//  2. Shift-reduce fusion: a Shift whose target is a pure auto-reduce state
//     is rewritten in place into a ShiftReduce of that state's default
//     rule, skipping a table lookup and a state transition at parse time.
//  3. Shift-reduce/goto folding: a ShiftReduce whose rule has exactly one
//     RHS symbol, no action code, and a non-terminal LHS contributes
//     nothing a plain goto on that LHS, already present in the same state,
//     doesn't already express; such a ShiftReduce is replaced by that goto
//     directly.
//
// It then calls ResortStates to renumber states so that ones sharing the
// same post-compression lookahead/action-type shape sort adjacently.
func Compress(states []*automaton.State) {
	for _, s := range states {
		fuseDefaultReduce(s)
	}
	fuseShiftReduce(states)
	foldShiftReduceIntoGoto(states)
	ResortStates(states)
}

func fuseDefaultReduce(s *automaton.State) {
	ruleCounts := make(map[int]int)
	var anyReduce bool
	for _, a := range s.Actions {
		if a.Type == automaton.Reduce {
			ruleCounts[a.Rule.IRule]++
			anyReduce = true
		}
	}
	if !anyReduce {
		return
	}

	bestRule, bestCount := -1, 0
	for rule, cnt := range ruleCounts {
		if cnt > bestCount || (cnt == bestCount && rule < bestRule) {
			bestRule, bestCount = rule, cnt
		}
	}

	var bestRuleObj *grammar.Rule
	kept := s.Actions[:0:0]
	for _, a := range s.Actions {
		if a.Type == automaton.Reduce && a.Rule.IRule == bestRule {
			bestRuleObj = a.Rule
			continue
		}
		kept = append(kept, a)
	}
	s.Actions = kept
	s.DefaultRule = bestRule
	s.DefaultRuleObj = bestRuleObj

	if len(kept) == 0 {
		s.AutoReduce = true
	}
}

// fuseShiftReduce finds states whose only action is a default reduce (no
// shifts, no other lookahead-specific actions) and rewrites every Shift
// action elsewhere in the automaton that targets such a state into a
// ShiftReduce of that rule, so the generated driver never has to push a state
// purely to immediately pop it again on the next token.
func fuseShiftReduce(states []*automaton.State) {
	fusable := make(map[*automaton.State]*grammar.Rule)
	for _, s := range states {
		if len(s.Actions) == 0 && s.DefaultRuleObj != nil {
			fusable[s] = s.DefaultRuleObj
		}
	}
	if len(fusable) == 0 {
		return
	}

	for _, s := range states {
		for _, a := range s.Actions {
			if a.Type != automaton.Shift {
				continue
			}
			if rule, ok := fusable[a.Target]; ok {
				a.Type = automaton.ShiftReduce
				a.Rule = rule
				a.Target = nil
			}
		}
	}
}

// foldShiftReduceIntoGoto replaces a ShiftReduce action with the state's
// own goto on the rule's LHS whenever the rule is a trivial single-symbol
// relabeling: exactly one RHS symbol, no action code to run, and a
// non-terminal LHS. Shifting the one RHS symbol and immediately reducing it
// to LHS has exactly the same net stack effect as the state's goto on LHS
// already has, so the ShiftReduce is redundant once that goto exists.
func foldShiftReduceIntoGoto(states []*automaton.State) {
	for _, s := range states {
		for _, a := range s.Actions {
			if a.Type != automaton.ShiftReduce {
				continue
			}
			r := a.Rule
			if len(r.RHS) != 1 || !r.NoCode || r.LHS.Kind != symtab.NonTerminal {
				continue
			}
			target, ok := s.GotoFor(r.LHS)
			if !ok {
				continue
			}
			a.Type = automaton.Shift
			a.Target = target
			a.Rule = nil
		}
	}
}

// ResortStates renumbers every state's StateNum so that states with
// identical action-table "shapes" (same lookahead symbols with actions, and
// the same action type on each) sort next to each other; the default rule
// is not part of the shape. The start state (the first in states) keeps
// StateNum 0; only the others are sorted. State identity (the State
// pointer) and Basis never change, only StateNum.
func ResortStates(states []*automaton.State) {
	ordered := make([]*automaton.State, len(states))
	copy(ordered, states)

	if len(ordered) > 1 {
		rest := ordered[1:]
		sort.SliceStable(rest, func(i, j int) bool {
			return shapeKey(rest[i]) < shapeKey(rest[j])
		})
	}

	for i, s := range ordered {
		s.StateNum = i
	}
}

func shapeKey(s *automaton.State) string {
	key := make([]byte, 0, len(s.Actions)*4)
	for _, a := range s.Actions {
		key = append(key, byte(a.Lookahead.Index>>8), byte(a.Lookahead.Index), byte(a.Type))
	}
	return string(key)
}
