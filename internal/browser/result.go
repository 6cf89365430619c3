package browser

import (
	"encoding/json"
	"errors"

	"github.com/simp-lee/storeadmin/internal/domain"
)

// FallbackMessage is shown when a failure carries no server-supplied message.
const FallbackMessage = "An unexpected error occurred"

// Status is the discriminant of a FetchResult.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FetchResult is the outcome of the most recent fetch. Exactly one of the
// three states holds; build values with Loading, Success or Failure.
type FetchResult[T any] struct {
	Status          Status `json:"status"`
	Items           []T    `json:"items,omitempty"`
	RecordsTotal    int    `json:"records_total"`
	RecordsFiltered int    `json:"records_filtered"`
	TotalPages      int    `json:"total_pages"`
	Message         string `json:"message,omitempty"`
	Err             error  `json:"-"`
}

// Loading returns the in-flight state.
func Loading[T any]() FetchResult[T] {
	return FetchResult[T]{Status: StatusLoading}
}

// Success returns a settled result. totalPages is derived from
// recordsFiltered, not recordsTotal.
func Success[T any](items []T, recordsTotal, recordsFiltered, pageSize int) FetchResult[T] {
	if items == nil {
		items = []T{}
	}
	return FetchResult[T]{
		Status:          StatusSuccess,
		Items:           items,
		RecordsTotal:    recordsTotal,
		RecordsFiltered: recordsFiltered,
		TotalPages:      totalPages(recordsFiltered, pageSize),
	}
}

// Failure converts err into the failure state. Rejections keep the
// server-supplied message; everything else gets FallbackMessage.
func Failure[T any](err error) FetchResult[T] {
	msg := FallbackMessage
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code == domain.CodeRejected && appErr.Message != "" {
		msg = appErr.Message
	}
	return FetchResult[T]{
		Status:  StatusFailure,
		Message: msg,
		Err:     err,
	}
}

// IsLoading reports whether the result is still in flight.
func (r FetchResult[T]) IsLoading() bool { return r.Status == StatusLoading }

// IsSuccess reports whether the fetch settled successfully (possibly empty).
func (r FetchResult[T]) IsSuccess() bool { return r.Status == StatusSuccess }

// IsFailure reports whether the fetch failed.
func (r FetchResult[T]) IsFailure() bool { return r.Status == StatusFailure }

// IsEmpty reports a successful fetch with no rows. An empty page is not an error.
func (r FetchResult[T]) IsEmpty() bool {
	return r.Status == StatusSuccess && len(r.Items) == 0
}

// envelope is the JSON body returned by the catalog API.
type envelope[T any] struct {
	Status          bool            `json:"status"`
	Message         string          `json:"message,omitempty"`
	Data            json.RawMessage `json:"data"`
	RecordsTotal    int             `json:"recordsTotal"`
	RecordsFiltered int             `json:"recordsFiltered"`
	items           []T
}

func (e *envelope[T]) decodeItems() error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		e.items = []T{}
		return nil
	}
	return json.Unmarshal(e.Data, &e.items)
}
