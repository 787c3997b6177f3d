package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/NickDirectory/internal/config"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return openAt(t, path), path
}

func openAt(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func insert(t *testing.T, store *Store, name, nickname string) int64 {
	t.Helper()
	rec := &storage.Record{Name: name, Nickname: nickname}
	require.NoError(t, store.Insert(context.Background(), rec))
	return rec.ID
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "NicknamesDirectory.db")
	openAt(t, path)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestMigrate_CreatesSchema(t *testing.T) {
	store, _ := newTestStore(t)

	var ddl string
	require.NoError(t, store.db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", TableName).Row().Scan(&ddl))
	assert.Contains(t, ddl, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, ddl, "name TEXT NOT NULL")
	assert.Contains(t, ddl, "nickname TEXT NOT NULL")

	version, err := userVersion(store.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestMigrate_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	insert(t, store, "Bob", "Bobby")
	require.NoError(t, store.Migrate(ctx))

	records, err := store.List(ctx, storage.Collection(), storage.Filter{}, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMigrate_VersionMismatchDropsData(t *testing.T) {
	store, path := newTestStore(t)
	insert(t, store, "Bob", "Bobby")
	require.NoError(t, setUserVersion(store.db, 7))
	require.NoError(t, store.Close())

	reopened := openAt(t, path)
	records, err := reopened.List(context.Background(), storage.Collection(), storage.Filter{}, "")
	require.NoError(t, err)
	assert.Empty(t, records)

	version, err := userVersion(reopened.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestInsert_AssignsIncreasingIDs(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, int64(1), insert(t, store, "Bob", "Bobby"))
	assert.Equal(t, int64(2), insert(t, store, "Ann", "Annie"))
}

func TestInsert_IDsNotReusedAfterDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	insert(t, store, "Bob", "Bobby")
	insert(t, store, "Ann", "Annie")

	count, err := store.Delete(ctx, storage.Collection(), storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.Equal(t, int64(3), insert(t, store, "Cid", "C"))
}

func TestList_SortAndFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	bob := insert(t, store, "Bob", "Alpha")
	ann := insert(t, store, "Ann", "Zed")

	records, err := store.List(ctx, storage.Collection(), storage.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ann", records[0].Name)
	assert.Equal(t, "Bob", records[1].Name)

	records, err = store.List(ctx, storage.Collection(), storage.Filter{}, storage.SortByNickname)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, bob, records[0].ID)

	records, err = store.List(ctx, storage.Item(ann), storage.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, storage.Record{ID: ann, Name: "Ann", Nickname: "Zed"}, records[0])

	records, err = store.List(ctx, storage.Collection(), storage.Filter{Nickname: "Alpha"}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, bob, records[0].ID)

	records, err = store.List(ctx, storage.Item(ann), storage.Filter{Name: "Bob"}, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestList_RejectsUnknownSort(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.List(context.Background(), storage.Collection(), storage.Filter{}, "rowid desc")
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	bob := insert(t, store, "Bob", "Bobby")
	insert(t, store, "Ann", "Annie")

	nick := "B2"
	count, err := store.Update(ctx, storage.Item(bob), storage.Filter{}, storage.Changes{Nickname: &nick})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	records, err := store.List(ctx, storage.Item(bob), storage.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B2", records[0].Nickname)
	assert.Equal(t, "Bob", records[0].Name)

	count, err = store.Update(ctx, storage.Item(99), storage.Filter{}, storage.Changes{Nickname: &nick})
	require.NoError(t, err)
	assert.Zero(t, count)

	all := "Same"
	count, err = store.Update(ctx, storage.Collection(), storage.Filter{}, storage.Changes{Nickname: &all})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.Update(ctx, storage.Collection(), storage.Filter{}, storage.Changes{})
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestDelete_ItemWithFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	bob := insert(t, store, "Bob", "Bobby")

	count, err := store.Delete(ctx, storage.Item(bob), storage.Filter{Nickname: "nope"})
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = store.Delete(ctx, storage.Item(bob), storage.Filter{Nickname: "Bobby"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInvalidAddressRejected(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.List(ctx, storage.Address{}, storage.Filter{}, "")
	assert.ErrorIs(t, err, storage.ErrInvalidAddress)

	_, err = store.Delete(ctx, storage.Item(0), storage.Filter{})
	assert.ErrorIs(t, err, storage.ErrInvalidAddress)
}

func TestReset(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	insert(t, store, "Bob", "Bobby")
	require.NoError(t, store.Reset(ctx))

	records, err := store.List(ctx, storage.Collection(), storage.Filter{}, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Close())

	err := store.Insert(context.Background(), &storage.Record{Name: "Bob", Nickname: "Bobby"})
	assert.ErrorIs(t, err, storage.ErrStorage)
}
