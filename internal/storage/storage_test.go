package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	key, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, key)

	key, err = ParseSortKey(" Nickname ")
	require.NoError(t, err)
	assert.Equal(t, SortByNickname, key)

	_, err = ParseSortKey("name; DROP TABLE Nicknames")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChangesColumns(t *testing.T) {
	assert.True(t, Changes{}.IsEmpty())

	nick := "B2"
	changes := Changes{Nickname: &nick}
	assert.False(t, changes.IsEmpty())
	assert.Equal(t, map[string]interface{}{"nickname": "B2"}, changes.Columns())
}

func TestFilterIsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Name: "Ann"}.IsZero())
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := fmt.Errorf("insert record: %w", &StorageError{Op: "insert", Err: cause})

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "insert", storageErr.Op)

	validation := &ValidationError{Field: "name", Reason: "required"}
	assert.ErrorIs(t, validation, ErrValidation)
	assert.Equal(t, "invalid name: required", validation.Error())
}
