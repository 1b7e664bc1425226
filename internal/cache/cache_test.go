package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/golemon/internal/pack"
)

func Test_SaveLoad_roundTrips(t *testing.T) {
	assert := assert.New(t)

	table := &pack.Table{
		NState:      3,
		NRule:       2,
		YYAction:    []int{-1, 5, -2},
		YYLookahead: []int{-1, 0, -1},
		ShiftOfst:   []int{0, -1, 2},
		Default:     []int{-2, 4, -2},
	}

	path := filepath.Join(t.TempDir(), "table.cache")
	hash := Hash("expr ::= NUM.\n")

	assert.NoError(Save(path, hash, table))

	got, ok, err := Load(path, hash)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(table, got)
}

func Test_Load_missesOnHashMismatch(t *testing.T) {
	assert := assert.New(t)

	table := &pack.Table{NState: 1, NRule: 1, Default: []int{-2}}
	path := filepath.Join(t.TempDir(), "table.cache")
	assert.NoError(Save(path, Hash("a"), table))

	_, ok, err := Load(path, Hash("b"))
	assert.NoError(err)
	assert.False(ok)
}

func Test_Load_missesOnMissingFile(t *testing.T) {
	assert := assert.New(t)

	_, ok, err := Load(filepath.Join(t.TempDir(), "nope.cache"), "anything")
	assert.NoError(err)
	assert.False(ok)
}
