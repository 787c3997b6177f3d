package storage

import (
	"context"
	"strings"
)

// Record is one row of the nickname directory.
type Record struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// Filter narrows an operation with equality conditions. Zero fields are ignored.
type Filter struct {
	ID       int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Nickname string `json:"nickname,omitempty" yaml:"nickname,omitempty"`
}

// IsZero reports whether the filter carries no condition.
func (f Filter) IsZero() bool {
	return f.ID == 0 && f.Name == "" && f.Nickname == ""
}

// Changes is a partial field set applied by an update. Nil fields are left untouched.
type Changes struct {
	Name     *string `json:"name,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Nickname == nil
}

// Columns returns the column/value pairs to write.
func (c Changes) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, 2)
	if c.Name != nil {
		columns["name"] = *c.Name
	}
	if c.Nickname != nil {
		columns["nickname"] = *c.Nickname
	}
	return columns
}

// SortKey names the column a listing is ordered by, ascending.
type SortKey string

const (
	SortByID       SortKey = "id"
	SortByName     SortKey = "name"
	SortByNickname SortKey = "nickname"
)

// DefaultSort is used when no sort key is given.
const DefaultSort = SortByName

// ParseSortKey maps user input onto a known column. The empty key selects DefaultSort.
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return DefaultSort, nil
	case SortByID, SortByName, SortByNickname:
		return key, nil
	default:
		return "", &ValidationError{Field: "sort", Reason: "unknown column " + raw}
	}
}

// Backend defines the persistence operations behind the record store.
// Implementations route the address themselves and wrap driver failures in StorageError.
type Backend interface {
	Close() error
	Migrate(ctx context.Context) error
	Reset(ctx context.Context) error

	List(ctx context.Context, addr Address, filter Filter, sort SortKey) ([]Record, error)
	Insert(ctx context.Context, record *Record) error
	Update(ctx context.Context, addr Address, filter Filter, changes Changes) (int64, error)
	Delete(ctx context.Context, addr Address, filter Filter) (int64, error)
}
