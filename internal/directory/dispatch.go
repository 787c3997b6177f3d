package directory

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// Dispatch routes a request onto the matching store operation. The returned
// response always carries the request id; on failure its status is
// StatusError and the error is returned as well.
func (s *RecordStore) Dispatch(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	resp, err := s.route(ctx, req)
	resp.ReferenceID = req.ID
	if err != nil {
		s.log.Debug("request failed",
			zap.String("id", req.ID),
			zap.String("method", string(req.Method)),
			zap.Stringer("address", req.Address),
			zap.Error(err))
		return protocol.Response{
			ReferenceID: req.ID,
			Status:      protocol.StatusError,
			Reason:      err.Error(),
		}, err
	}
	resp.Status = protocol.StatusOK
	return resp, nil
}

func (s *RecordStore) route(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	contentType, err := s.TypeOf(req.Address)
	if err != nil {
		return protocol.Response{}, err
	}

	switch req.Method {
	case protocol.MethodGet:
		return s.handleGet(ctx, req, contentType)
	case protocol.MethodPost:
		return s.handlePost(ctx, req)
	case protocol.MethodPut:
		return s.handlePut(ctx, req, contentType)
	case protocol.MethodDelete:
		return s.handleDelete(ctx, req, contentType)
	default:
		return protocol.Response{}, &storage.ValidationError{Field: "method", Reason: "unsupported " + string(req.Method)}
	}
}

func (s *RecordStore) handleGet(ctx context.Context, req protocol.Request, contentType storage.ContentType) (protocol.Response, error) {
	payload, err := decodePayload[protocol.ListPayload](req.Payload, false)
	if err != nil {
		return protocol.Response{}, err
	}
	records, err := s.List(ctx, req.Address, payload.Filter, storage.SortKey(payload.Sort))
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.Response{Type: contentType, Records: records}, nil
}

func (s *RecordStore) handlePost(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Address.Kind() != storage.KindCollection {
		return protocol.Response{}, &storage.InvalidAddressError{Address: req.Address.String()}
	}
	payload, err := decodePayload[protocol.InsertPayload](req.Payload, true)
	if err != nil {
		return protocol.Response{}, err
	}
	id, err := s.Insert(ctx, payload.Name, payload.Nickname)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.Response{
		Type:     storage.ContentTypeItem,
		ID:       id,
		Location: storage.Item(id).String(),
		Affected: 1,
	}, nil
}

func (s *RecordStore) handlePut(ctx context.Context, req protocol.Request, contentType storage.ContentType) (protocol.Response, error) {
	payload, err := decodePayload[protocol.UpdatePayload](req.Payload, true)
	if err != nil {
		return protocol.Response{}, err
	}
	changes := storage.Changes{Name: payload.Name, Nickname: payload.Nickname}
	count, err := s.Update(ctx, req.Address, changes, payload.Filter)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.Response{Type: contentType, Affected: count}, nil
}

func (s *RecordStore) handleDelete(ctx context.Context, req protocol.Request, contentType storage.ContentType) (protocol.Response, error) {
	payload, err := decodePayload[protocol.DeletePayload](req.Payload, false)
	if err != nil {
		return protocol.Response{}, err
	}
	count, err := s.Delete(ctx, req.Address, payload.Filter)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.Response{Type: contentType, Affected: count}, nil
}

// decodePayload converts a loosely typed payload into T by round-tripping
// it through JSON. A nil payload yields the zero T unless required.
func decodePayload[T any](payload interface{}, required bool) (T, error) {
	var out T
	if payload == nil {
		if required {
			return out, &storage.ValidationError{Field: "payload", Reason: "required"}
		}
		return out, nil
	}
	if typed, ok := payload.(T); ok {
		return typed, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return out, &storage.ValidationError{Field: "payload", Reason: err.Error()}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &storage.ValidationError{Field: "payload", Reason: err.Error()}
	}
	return out, nil
}
