package oai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

const (
	CodeConfigInvalid       = "E_CONFIG_INVALID"
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeTimeout             = "E_TIMEOUT"
	CodeBadStatus           = "E_BAD_STATUS"
	CodeResponseMalformed   = "E_RESPONSE_MALFORMED"
	CodeOAIError            = "E_OAI_ERROR"
)

// Error wraps harvesting failures with a stable code and retryability hint.
// The engine itself never retries; the hint is for the transport or caller.
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

// OAIError is an error element reported by the endpoint itself, carrying
// the protocol error code (badResumptionToken, noRecordsMatch, ...).
type OAIError struct {
	Code    string
	Message string
}

func (e *OAIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsOAIError unwraps an endpoint-reported protocol error, if any.
func AsOAIError(err error) (*OAIError, bool) {
	var oaiErr *OAIError
	if errors.As(err, &oaiErr) {
		return oaiErr, true
	}
	return nil, false
}

// classifyTransport converts network-level failures to structured errors.
func classifyTransport(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(CodeTimeout, true, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(CodeTimeout, true, err)
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return wrapError(CodeTimeout, true, err)
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") || strings.Contains(errStr, "unreachable") {
		return wrapError(CodeEndpointUnreachable, true, err)
	}

	return wrapError(CodeEndpointUnreachable, true, err)
}
