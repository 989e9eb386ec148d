package syncer

import (
	"errors"
	"fmt"

	"github.com/kyris31/hurvest-sub000/internal/remote"
)

// RecordError describes one failed record or table during a sync pass.
// Table-level failures (a pull fetch that never returned rows) leave
// RecordID empty. Code, Details, and Hint carry the remote store's
// structured error verbatim when one was available.
type RecordError struct {
	Table    string `json:"table"`
	RecordID string `json:"record_id,omitempty"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Details  string `json:"details,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// PushResult aggregates one push pass.
type PushResult struct {
	Pushed  int           `json:"changes_pushed"`
	Offline bool          `json:"offline"`
	Errors  []RecordError `json:"errors"`
}

// PullResult aggregates one pull pass.
type PullResult struct {
	Fetched int           `json:"changes_fetched"`
	Offline bool          `json:"offline"`
	Errors  []RecordError `json:"errors"`
}

// Summary combines the push and pull halves of one synchronize call.
type Summary struct {
	Push PushResult `json:"push_result"`
	Pull PullResult `json:"fetch_result"`
}

// Offline reports whether the cycle short-circuited without network
// calls.
func (s Summary) Offline() bool {
	return s.Push.Offline && s.Pull.Offline
}

// Errors returns the combined push and pull error lists, push first.
func (s Summary) Errors() []RecordError {
	combined := make([]RecordError, 0, len(s.Push.Errors)+len(s.Pull.Errors))
	combined = append(combined, s.Push.Errors...)
	combined = append(combined, s.Pull.Errors...)
	return combined
}

func (s Summary) String() string {
	if s.Offline() {
		return "offline, nothing synchronized"
	}
	return fmt.Sprintf("pushed %d and fetched %d changes (%d errors)",
		s.Push.Pushed, s.Pull.Fetched, len(s.Errors()))
}

// pushError builds the structured error for one failed record push,
// lifting the remote store's code/details/hint out verbatim and
// synthesizing a readable message for the known constraint classes.
func pushError(table, recordID string, err error) RecordError {
	recordError := RecordError{
		Table:    table,
		RecordID: recordID,
		Message:  err.Error(),
	}

	var storeError *remote.StoreError
	if !errors.As(err, &storeError) {
		return recordError
	}

	recordError.Code = storeError.Code
	recordError.Details = storeError.Details
	recordError.Hint = storeError.Hint
	switch {
	case storeError.IsForeignKeyViolation():
		recordError.Message = fmt.Sprintf("%s %s references a parent record the server does not have", table, recordID)
	case storeError.IsUniqueViolation():
		recordError.Message = fmt.Sprintf("%s %s duplicates a unique value already on the server", table, recordID)
	default:
		recordError.Message = storeError.Message
	}
	return recordError
}

func tableError(table string, err error) RecordError {
	return RecordError{Table: table, Message: err.Error()}
}
