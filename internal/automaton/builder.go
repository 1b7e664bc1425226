// Package automaton builds the LALR(1) viable-prefix automaton: the set of
// parser states and the shift/reduce/accept actions attached to each,
// before any conflict resolution or table compression has run. The
// construction follows the kernel-basis-plus-propagation-link method
// (Dragon Book, 2nd ed., Algorithms 4.62/4.63): closure both expands items
// and records, on each item, the other items whose lookahead set must track
// its own, so that a single fixpoint pass at the end (FindFollowSets)
// finishes every state's lookaheads at once rather than recomputing closure
// under every candidate lookahead individually.
package automaton

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/dekarrin/golemon/internal/bitset"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/symtab"
)

// EOF is the name of the synthetic end-of-input terminal added to every
// grammar's symbol table by NewBuilder.
const EOF = "$"

// Builder constructs the LALR(1) automaton for a single grammar. Build it
// with NewBuilder, then call the Find* passes in order; each depends on the
// ones before it having already run.
type Builder struct {
	Grammar    *grammar.Grammar
	NTerminal  int
	NSymbol    int
	EOFSymbol  *symtab.Symbol
	StartRule  *grammar.Rule
	States     []*State
	rulesByLHS map[*symtab.Symbol][]*grammar.Rule
	terminals  []*symtab.Symbol // indexed by Symbol.Index, length NTerminal
}

// NewBuilder finalizes g (adding its synthetic start rule and an end-of-input
// terminal), indexes its symbol table, and returns a Builder ready to run
// the Find* passes on it. g must not be touched again by its caller after
// this returns.
func NewBuilder(g *grammar.Grammar) *Builder {
	eof := g.Symbols.NewKind(EOF, symtab.Terminal)
	startRule := g.Finalize()
	nTerm, nSym := g.Symbols.Index()

	b := &Builder{
		Grammar:    g,
		NTerminal:  nTerm,
		NSymbol:    nSym,
		EOFSymbol:  eof,
		StartRule:  startRule,
		rulesByLHS: make(map[*symtab.Symbol][]*grammar.Rule),
	}
	for _, r := range g.Rules {
		b.rulesByLHS[r.LHS] = append(b.rulesByLHS[r.LHS], r)
	}

	b.terminals = make([]*symtab.Symbol, nTerm)
	for _, s := range g.Symbols.All() {
		if s.Kind == symtab.Terminal {
			b.terminals[s.Index] = s
		}
	}
	return b
}

// FindRulePrecedences assigns each rule with no explicit [SYMBOL] precedence
// override the precedence of its rightmost terminal, for rules that don't
// already have one set by the frontend.
func (b *Builder) FindRulePrecedences() {
	for _, r := range b.Grammar.Rules {
		if r.Precedence != nil {
			continue
		}
		for i := len(r.RHS) - 1; i >= 0; i-- {
			if r.RHS[i].Sym.Kind == symtab.Terminal {
				r.Precedence = r.RHS[i].Sym
				break
			}
		}
	}
}

// FindFirstSets computes, by fixpoint, the FIRST set and nullability
// (Lambda) of every non-terminal in the grammar.
func (b *Builder) FindFirstSets() {
	for _, s := range b.Grammar.Symbols.All() {
		if s.Kind == symtab.Terminal {
			s.FirstSet = bitset.New(b.NTerminal)
			s.FirstSet.Add(s.Index)
		} else {
			s.FirstSet = bitset.New(b.NTerminal)
		}
	}

	// Multi-terminals are excluded from All() (and from the packed
	// numbering) by symtab.Table.Index, but rules can still reference them
	// directly, so their own FirstSet needs populating from their members.
	for _, s := range b.Grammar.Symbols.MultiTerminals() {
		s.FirstSet = bitset.New(b.NTerminal)
		for _, sub := range s.SubSymbols {
			s.FirstSet.Union(sub.FirstSet)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range b.Grammar.Rules {
			nullable := true
			for _, rs := range r.RHS {
				if r.LHS.FirstSet.UnionChanged(unionOfFirst(rs.Sym)) {
					changed = true
				}
				if !rs.Sym.Lambda {
					nullable = false
					break
				}
			}
			if nullable && !r.LHS.Lambda {
				r.LHS.Lambda = true
				changed = true
			}
		}
	}
}

// unionOfFirst returns the FIRST set to contribute for a single RHS symbol.
// Every symbol's FirstSet is fully populated by the time this is called,
// including multi-terminals (see the member union above).
func unionOfFirst(s *symtab.Symbol) *bitset.Set {
	return s.FirstSet
}

// firstOfSequence computes FIRST(beta) for a sequence of RHS symbols,
// unioning in each symbol's FIRST set until a non-nullable symbol is found
// (or the sequence is exhausted, in which case the sequence is nullable).
func firstOfSequence(beta []grammar.RHSSymbol, nTerminal int) (first *bitset.Set, nullable bool) {
	first = bitset.New(nTerminal)
	nullable = true
	for _, rs := range beta {
		first.Union(unionOfFirst(rs.Sym))
		if !rs.Sym.Lambda {
			nullable = false
			break
		}
	}
	return first, nullable
}

// FindStates builds the canonical collection of LALR(1) states: the kernel
// items and shift/goto edges of the viable-prefix automaton, along with the
// propagation links FindFollowSets will later use to finish computing every
// item's lookahead set. FindFirstSets must have already run.
func (b *Builder) FindStates() {
	startItem := grammar.NewConfig(b.StartRule, 0, b.NTerminal)
	startItem.Forward.Add(b.EOFSymbol.Index)

	start := newState(0, []*grammar.Config{startItem})
	b.States = []*State{start}
	byCore := map[string]*State{kernelKey(start.Basis): start}

	queue := []*State{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		s.Closure = b.closure(s.Basis)

		bySymbol := make(map[*symtab.Symbol][]*grammar.Config)
		var order []*symtab.Symbol
		for _, c := range s.Closure {
			next := c.NextSymbol()
			if next == nil {
				continue
			}
			if _, ok := bySymbol[next.Sym]; !ok {
				order = append(order, next.Sym)
			}
			bySymbol[next.Sym] = append(bySymbol[next.Sym], c)
		}

		for _, X := range order {
			srcItems := bySymbol[X]
			kernel := make([]*grammar.Config, len(srcItems))
			for i, c := range srcItems {
				kernel[i] = grammar.NewConfig(c.Rule, c.Dot+1, b.NTerminal)
			}
			sort.Slice(kernel, func(i, j int) bool { return kernel[i].CoreKey() < kernel[j].CoreKey() })

			key := kernelKey(kernel)
			target, exists := byCore[key]
			if !exists {
				target = newState(len(b.States), kernel)
				byCore[key] = target
				b.States = append(b.States, target)
				queue = append(queue, target)
			}

			for _, c := range srcItems {
				tc := target.basisConfig(c.Rule, c.Dot+1)
				c.Propagate = append(c.Propagate, tc)
			}

			if X.Kind == symtab.Terminal || X.Kind == symtab.MultiTerminal {
				s.Actions = append(s.Actions, &Action{Lookahead: X, Type: Shift, Target: target})
			} else {
				s.Gotos = append(s.Gotos, &Goto{NT: X, Target: target})
			}
		}
	}
}

// closure computes the full item closure of a state's kernel basis,
// establishing propagation links among the closure's own items as it goes
// (Dragon Book Algorithm 4.62's closure step, generalized to operate
// directly on items-with-lookahead-sets instead of plain LR(0) cores).
func (b *Builder) closure(basis []*grammar.Config) []*grammar.Config {
	byCore := make(map[string]*grammar.Config)
	var all []*grammar.Config
	for _, c := range basis {
		byCore[c.CoreKey()] = c
		all = append(all, c)
	}

	for i := 0; i < len(all); i++ {
		cfg := all[i]
		next := cfg.NextSymbol()
		if next == nil || next.Sym.Kind == symtab.Terminal || next.Sym.Kind == symtab.MultiTerminal {
			continue
		}
		B := next.Sym
		beta := cfg.Beta()
		firstBeta, nullableBeta := firstOfSequence(beta, b.NTerminal)

		for _, r := range b.rulesByLHS[B] {
			core := fmt.Sprintf("%d.0", r.IRule)
			child, ok := byCore[core]
			if !ok {
				child = grammar.NewConfig(r, 0, b.NTerminal)
				byCore[core] = child
				all = append(all, child)
			}
			child.Forward.Union(firstBeta)
			if nullableBeta {
				cfg.Propagate = append(cfg.Propagate, child)
			}
		}
	}
	return all
}

// kernelKey returns a string uniquely identifying a state's kernel basis by
// its item cores (ignoring lookaheads), which is exactly the notion of
// state identity LALR(1) merging uses: two kernels with the same cores are
// the same state, however their lookaheads eventually turn out.
//
// The cores are hashed with blake2b rather than concatenated directly so
// that state interning during construction (a map lookup per candidate
// goto target, for every symbol of every state) stays cheap on grammars
// with thousands of states and long productions.
func kernelKey(basis []*grammar.Config) string {
	cores := make([]string, len(basis))
	for i, c := range basis {
		cores[i] = c.CoreKey()
	}
	sort.Strings(cores)
	sum := blake2b.Sum256([]byte(strings.Join(cores, "|")))
	return string(sum[:])
}

// FindLinks is a no-op in this construction: propagation links are created
// inline by closure and FindStates as each item is discovered, rather than
// in a separate pass over an already-built LR(0) automaton. It is kept as
// an explicit, separately named step so the pipeline in golemon.go reads
// the same way the textbook algorithm does: find the states, find the
// links between their items, then propagate.
func (b *Builder) FindLinks() {}

// FindFollowSets runs the propagation-link fixpoint to completion: every
// item's Forward set is unioned into every item it has a Propagate link to,
// repeatedly, until a full pass over every state makes no further changes.
func (b *Builder) FindFollowSets() {
	changed := true
	for changed {
		changed = false
		for _, s := range b.States {
			for _, c := range s.Closure {
				for _, target := range c.Propagate {
					if target.Forward.UnionChanged(c.Forward) {
						changed = true
					}
				}
			}
		}
	}
}

// FindActions walks every state's finished closure and appends a Reduce (or
// Accept, for the augmenting rule on end-of-input) action for each
// lookahead terminal in each end-of-rule item's Forward set. Shift actions
// were already recorded by FindStates. FindFollowSets must have already
// run.
func (b *Builder) FindActions() {
	for _, s := range b.States {
		for _, c := range s.Closure {
			if !c.AtEnd() {
				continue
			}
			for _, t := range c.Forward.Elements() {
				term := b.termByIndex(t)
				if c.Rule.LHSStart && term == b.EOFSymbol {
					s.Actions = append(s.Actions, &Action{Lookahead: term, Type: Accept})
					continue
				}
				s.Actions = append(s.Actions, &Action{Lookahead: term, Type: Reduce, Rule: c.Rule})
				c.Rule.DoesReduce = true
			}
		}
	}
}

func (b *Builder) termByIndex(i int) *symtab.Symbol {
	return b.terminals[i]
}
