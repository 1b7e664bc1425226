package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Table_New_internsByName(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	a := tab.New("expr")
	b := tab.New("expr")

	assert.Same(a, b)
	assert.Equal(NonTerminal, a.Kind)
}

func Test_Table_New_kindFromSpelling(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	plus := tab.New("PLUS")
	expr := tab.New("expr")
	errSym := tab.New("error")

	assert.Equal(Terminal, plus.Kind)
	assert.Equal(NonTerminal, expr.Kind)
	assert.Equal(NonTerminal, errSym.Kind)
}

func Test_Table_Index_ordersTerminalsBeforeNonTerminals(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	tab.New("expr")
	tab.New("PLUS")
	tab.New("NUM")
	tab.New("error")

	nTerm, nSym := tab.Index()

	assert.Equal(2, nTerm)
	assert.Equal(4, nSym)

	for _, s := range tab.All() {
		if s.Kind == Terminal {
			assert.Less(s.Index, nTerm)
		} else {
			assert.GreaterOrEqual(s.Index, nTerm)
			assert.Less(s.Index, nSym)
		}
	}
}

func Test_Table_Index_errorSortsFirstAmongNonTerminals(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	tab.New("zzz")
	tab.New("error")
	tab.New("aaa")

	nTerm, _ := tab.Index()
	errSym, _ := tab.Lookup("error")

	assert.Equal(nTerm, errSym.Index)
}

func Test_Table_Index_defaultSentinelSortsLast(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	tab.New("aaa")
	tab.New("{default}")
	tab.New("zzz")

	_, nSym := tab.Index()
	sentinel, _ := tab.Lookup("{default}")

	assert.Equal(nSym-1, sentinel.Index)
}

func Test_Table_Index_multiTerminalExcludedFromCount(t *testing.T) {
	assert := assert.New(t)

	tab := New()
	plus := tab.New("PLUS")
	minus := tab.New("MINUS")
	tab.NewMultiTerminal("PLUS|MINUS", []*Symbol{plus, minus})

	nTerm, nSym := tab.Index()

	assert.Equal(2, nTerm)
	assert.Equal(2, nSym)

	multi, _ := tab.Lookup("PLUS|MINUS")
	assert.Equal(-1, multi.Index)
}
