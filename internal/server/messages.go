package server

import (
	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
)

// Request types sent by clients.
const (
	TypeTables = "tables"
	TypeMine   = "mine"
	TypeSave   = "save"
	TypeFiles  = "files"
	TypeLoad   = "load"
	TypeHome   = "home"
	TypeClose  = "close"
)

// Response types sent by the server.
const (
	TypeHello      = "hello"
	TypeDendrogram = "dendrogram"
	TypeSaved      = "saved"
	TypeBye        = "bye"
	TypeError      = "error"
)

// Error codes carried by TypeError responses.
const (
	CodeEmptyDataset   = "empty_dataset"
	CodeNonNumeric     = "non_numeric"
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// Request is a client message.
type Request struct {
	Type string `json:"type"`

	// mine
	Table    string `json:"table,omitempty"`
	Depth    int    `json:"depth,omitempty"`
	LinkMode int    `json:"link_mode,omitempty"` // 1 single, 2 average
	Linkage  string `json:"linkage,omitempty"`   // used when LinkMode is 0

	// save, load
	Name string `json:"name,omitempty"`
}

// Response is a server message.
type Response struct {
	Type    string   `json:"type"`
	Session string   `json:"session,omitempty"`
	Tables  []string `json:"tables,omitempty"`
	Files   []string `json:"files,omitempty"`

	// dendrogram; Text is the index rendering, identical for mine and load.
	// Examples renders member values and is only set by mine.
	Text       string             `json:"text,omitempty"`
	Examples   string             `json:"examples,omitempty"`
	Name       string             `json:"name,omitempty"`
	Depth      int                `json:"depth,omitempty"`
	Linkage    string             `json:"linkage,omitempty"`
	Dendrogram *hclust.Dendrogram `json:"dendrogram,omitempty"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// errRateLimited marks mine requests over the session budget.
var errRateLimited = errors.New("too many mine requests")

// errorCode classifies err for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errRateLimited):
		return CodeRateLimited
	case errors.Is(err, hclust.ErrEmptyDataset):
		return CodeEmptyDataset
	case errors.Is(err, hclust.ErrNonNumericAttribute):
		return CodeNonNumeric
	case errors.IsNotFoundError(err):
		return CodeNotFound
	case errors.IsInvalidRequestError(err), errors.Is(err, hclust.ErrDimensionMismatch):
		return CodeInvalidRequest
	default:
		return CodeInternal
	}
}

// errorResponse builds the message for err. Internal errors are reported
// without detail; the detail is logged instead.
func errorResponse(err error) Response {
	code := errorCode(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	return Response{Type: TypeError, Error: msg, Code: code}
}
