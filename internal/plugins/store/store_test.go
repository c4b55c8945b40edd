package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))

	return NewStore(db, nil, hclog.NewNullLogger(), 1024)
}

func TestSetAndGet(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Set("theme", json.RawMessage(`{"mode":"dark"}`)))

	value, err := s.Get("theme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"dark"}`, string(value))
}

func TestSetOverwritesExistingValue(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Set("volume", json.RawMessage(`50`)))
	require.NoError(t, s.Set("volume", json.RawMessage(`75`)))

	value, err := s.Get("volume")
	require.NoError(t, err)
	assert.Equal(t, `75`, string(value))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestGetMissingKey(t *testing.T) {
	s := testStore(t)

	_, err := s.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestSetRejectsInvalidInput(t *testing.T) {
	s := testStore(t)

	assert.Error(t, s.Set("", json.RawMessage(`1`)))
	assert.Error(t, s.Set("bad", json.RawMessage(`{"unterminated":`)))

	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}
	assert.Error(t, s.Set("huge", json.RawMessage(`"`+string(big)+`"`)))
}

func TestDeleteAndHas(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Set("temp", json.RawMessage(`true`)))

	exists, err := s.Has("temp")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete("temp"))

	exists, err = s.Has("temp")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing key is not an error
	assert.NoError(t, s.Delete("temp"))
}

func TestKeysSorted(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Set("zebra", json.RawMessage(`1`)))
	require.NoError(t, s.Set("alpha", json.RawMessage(`2`)))
	require.NoError(t, s.Set("mango", json.RawMessage(`3`)))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, keys)
}

func TestClear(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Set("a", json.RawMessage(`1`)))
	require.NoError(t, s.Set("b", json.RawMessage(`2`)))
	require.NoError(t, s.Clear())

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestValueRoundTripsArbitraryJSON(t *testing.T) {
	s := testStore(t)

	documents := map[string]string{
		"string": `"hello"`,
		"number": `42.5`,
		"array":  `[1,2,3]`,
		"nested": `{"a":{"b":[true,null]}}`,
	}

	for key, doc := range documents {
		require.NoError(t, s.Set(key, json.RawMessage(doc)))
		value, err := s.Get(key)
		require.NoError(t, err)
		assert.JSONEq(t, doc, string(value))
	}
}
