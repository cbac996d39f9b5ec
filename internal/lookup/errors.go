package lookup

import (
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
)

const (
	CodeConfigInvalid = "E_CONFIG_INVALID"
	CodeFetchFailed   = "E_FETCH_FAILED"
	CodeLoadFailed    = "E_LOAD_FAILED"
)

// Error wraps lookup-table failures with retryability hints. Fetch errors
// cover everything up to the CSV landing on disk; load errors cover
// everything after.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error         { return e.Err }
func (e *Error) CodeValue() string     { return e.Code }
func (e *Error) RetryableStatus() bool { return e.Retryable }

func wrapError(code string, retryable bool, err error) *Error {
	if err == nil {
		return &Error{Code: code, Retryable: retryable}
	}
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// classifyFetchError converts object-store errors to fetch errors. Auth
// rejections and missing objects are permanent; network trouble is not.
func classifyFetchError(err error) *Error {
	if err == nil {
		return nil
	}

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket", "NoSuchKey", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeFetchFailed, false, err)
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "no such bucket") || strings.Contains(errStr, "no such key") ||
		strings.Contains(errStr, "not found") || strings.Contains(errStr, "does not exist") {
		return wrapError(CodeFetchFailed, false, err)
	}
	if strings.Contains(errStr, "access denied") || strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "invalid access key") || strings.Contains(errStr, "signature") ||
		strings.Contains(errStr, "authentication") {
		return wrapError(CodeFetchFailed, false, err)
	}

	return wrapError(CodeFetchFailed, true, err)
}
