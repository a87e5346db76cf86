package ledger

import (
	"fmt"

	"github.com/imroc/req/v3"
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Stems errors
	CodeStemsInsertFailed = "E_STEMS_INSERT_FAILED" // a failure inserting one or more rows
	CodeStemsDuplicate    = "E_STEMS_DUPLICATE"     // a row with the same record id already exists
	CodeStemsCountFailed  = "E_STEMS_COUNT_FAILED"  // a failure counting rows
)

// APIError represents a stems ledger API error. Any of these aborts the
// running sync attempt; the local queue is left untouched.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger error: %s - %s", e.Code, e.Message)
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok {
			return fmt.Errorf("%s %w", operation, err)
		}

		return fmt.Errorf("ledger error: %s %s", operation, resp.Dump())
	}

	return nil
}
