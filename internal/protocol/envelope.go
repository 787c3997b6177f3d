package protocol

import (
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// Method enumerates the verbs of the request surface.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Status is the outcome carried by a Response.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Request wraps every call made against the record store.
type Request struct {
	ID        string          `json:"id"`
	Method    Method          `json:"method"`
	Address   storage.Address `json:"address"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload,omitempty"`
}

// NewRequest stamps a request with a fresh id and the current time.
func NewRequest(method Method, addr storage.Address, payload interface{}) Request {
	return Request{
		ID:        uuid.NewString(),
		Method:    method,
		Address:   addr,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// Response reports the result of a Request.
type Response struct {
	ReferenceID string              `json:"reference_id"`
	Status      Status              `json:"status"`
	Reason      string              `json:"reason,omitempty"`
	Type        storage.ContentType `json:"type,omitempty"`
	Records     []storage.Record    `json:"records,omitempty"`
	ID          int64               `json:"id,omitempty"`
	Location    string              `json:"location,omitempty"`
	Affected    int64               `json:"affected"`
}

// ListPayload carries the optional arguments of a GET.
type ListPayload struct {
	Sort   string         `json:"sort,omitempty"`
	Filter storage.Filter `json:"filter"`
}

// InsertPayload creates a new record through POST.
type InsertPayload struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// UpdatePayload carries the partial field set of a PUT.
type UpdatePayload struct {
	Name     *string        `json:"name,omitempty"`
	Nickname *string        `json:"nickname,omitempty"`
	Filter   storage.Filter `json:"filter"`
}

// DeletePayload narrows a DELETE.
type DeletePayload struct {
	Filter storage.Filter `json:"filter"`
}
