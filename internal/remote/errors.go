package remote

import "fmt"

// Machine codes the remote store distinguishes. The constraint codes
// mirror the SQL state values relational backends report, so callers can
// tell a broken reference from a duplicate business key.
const (
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeRowNotFound         = "not_found"
	CodeUnknownTable        = "unknown_table"
)

// StoreError is the structured error surface of the remote store. Code,
// Details, and Hint arrive verbatim from the server; Message is always
// human readable.
type StoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *StoreError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote store: %s", e.Message)
	}
	return fmt.Sprintf("remote store [%s]: %s", e.Code, e.Message)
}

// IsForeignKeyViolation reports whether the error is a broken soft
// foreign key.
func (e *StoreError) IsForeignKeyViolation() bool {
	return e.Code == CodeForeignKeyViolation
}

// IsUniqueViolation reports whether the error is a duplicate business
// key.
func (e *StoreError) IsUniqueViolation() bool {
	return e.Code == CodeUniqueViolation
}
