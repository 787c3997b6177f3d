package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

func dispatch(t *testing.T, store *RecordStore, method protocol.Method, addr storage.Address, payload interface{}) (protocol.Response, error) {
	t.Helper()
	req := protocol.NewRequest(method, addr, payload)
	resp, err := store.Dispatch(context.Background(), req)
	assert.Equal(t, req.ID, resp.ReferenceID)
	return resp, err
}

func TestDispatch_PostThenGet(t *testing.T) {
	store := newTestStore(t)

	resp, err := dispatch(t, store, protocol.MethodPost, storage.Collection(), protocol.InsertPayload{Name: "Bob", Nickname: "Bobby"})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, resp.Status)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "content://nickdir.provider/nicknames/1", resp.Location)
	assert.Equal(t, storage.ContentTypeItem, resp.Type)

	_, err = dispatch(t, store, protocol.MethodPost, storage.Collection(), map[string]interface{}{"name": "Ann", "nickname": "Annie"})
	require.NoError(t, err)

	resp, err = dispatch(t, store, protocol.MethodGet, storage.Collection(), nil)
	require.NoError(t, err)
	assert.Equal(t, storage.ContentTypeDir, resp.Type)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Ann", resp.Records[0].Name)

	resp, err = dispatch(t, store, protocol.MethodGet, storage.Item(1), nil)
	require.NoError(t, err)
	assert.Equal(t, storage.ContentTypeItem, resp.Type)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Bobby", resp.Records[0].Nickname)

	resp, err = dispatch(t, store, protocol.MethodGet, storage.Collection(), protocol.ListPayload{Sort: "id"})
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Bob", resp.Records[0].Name)
}

func TestDispatch_PostToItemRejected(t *testing.T) {
	store := newTestStore(t)

	resp, err := dispatch(t, store, protocol.MethodPost, storage.Item(1), protocol.InsertPayload{Name: "Bob", Nickname: "Bobby"})
	require.ErrorIs(t, err, storage.ErrInvalidAddress)
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.NotEmpty(t, resp.Reason)
}

func TestDispatch_PostValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := dispatch(t, store, protocol.MethodPost, storage.Collection(), nil)
	assert.ErrorIs(t, err, storage.ErrValidation)

	_, err = dispatch(t, store, protocol.MethodPost, storage.Collection(), protocol.InsertPayload{Name: "Bob"})
	assert.ErrorIs(t, err, storage.ErrValidation)

	_, err = dispatch(t, store, protocol.MethodPost, storage.Collection(), map[string]interface{}{"name": 12})
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestDispatch_PutAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, "Bob", "Bobby")
	require.NoError(t, err)
	_, err = store.Insert(ctx, "Ann", "Annie")
	require.NoError(t, err)

	resp, err := dispatch(t, store, protocol.MethodPut, storage.Item(id), protocol.UpdatePayload{Nickname: strPtr("B2")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Affected)

	resp, err = dispatch(t, store, protocol.MethodPut, storage.Item(99), protocol.UpdatePayload{Nickname: strPtr("B2")})
	require.NoError(t, err)
	assert.Zero(t, resp.Affected)

	resp, err = dispatch(t, store, protocol.MethodDelete, storage.Collection(), protocol.DeletePayload{Filter: storage.Filter{Name: "Ann"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Affected)

	resp, err = dispatch(t, store, protocol.MethodDelete, storage.Collection(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Affected)
	assert.Equal(t, storage.ContentTypeDir, resp.Type)
}

func TestDispatch_InvalidAddress(t *testing.T) {
	store := newTestStore(t)

	for _, method := range []protocol.Method{protocol.MethodGet, protocol.MethodPost, protocol.MethodPut, protocol.MethodDelete} {
		t.Run(string(method), func(t *testing.T) {
			_, err := dispatch(t, store, method, storage.Address{}, nil)
			assert.ErrorIs(t, err, storage.ErrInvalidAddress)
		})
	}
}

func TestDispatch_UnsupportedMethod(t *testing.T) {
	store := newTestStore(t)

	resp, err := dispatch(t, store, protocol.Method("PATCH"), storage.Collection(), nil)
	require.ErrorIs(t, err, storage.ErrValidation)
	assert.Equal(t, protocol.StatusError, resp.Status)
}

func TestDecodePayload(t *testing.T) {
	payload, err := decodePayload[protocol.ListPayload](nil, false)
	require.NoError(t, err)
	assert.Equal(t, protocol.ListPayload{}, payload)

	payload, err = decodePayload[protocol.ListPayload](map[string]interface{}{"sort": "nickname", "filter": map[string]interface{}{"name": "Ann"}}, false)
	require.NoError(t, err)
	assert.Equal(t, "nickname", payload.Sort)
	assert.Equal(t, "Ann", payload.Filter.Name)

	_, err = decodePayload[protocol.InsertPayload](nil, true)
	assert.ErrorIs(t, err, storage.ErrValidation)
}
