// Package gatewayerrors defines the error taxonomy returned by adapters and
// surfaced by the HTTP layer. Every error an adapter returns should be one of
// the four kinds here so the HTTP handler can map it to a status code
// without inspecting adapter internals.
package gatewayerrors

import "fmt"

// Kind identifies which of the four error categories an error belongs to.
type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindUnsupportedModel  Kind = "unsupported_model"
	KindValidationFailure Kind = "validation_failure"
	KindInternalError     Kind = "internal_error"
)

// StatusCode returns the HTTP status code a Kind maps to.
func (k Kind) StatusCode() int {
	if k == KindInternalError {
		return 500
	}
	return 400
}

// GatewayError is the concrete error type carried through the adapter and
// HTTP layers. Construct one with the Kind-specific helpers below rather
// than the struct literal directly.
type GatewayError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StatusCode satisfies the interface the HTTP layer dispatches on.
func (e *GatewayError) StatusCode() int {
	return e.Kind.StatusCode()
}

// BadRequest reports a malformed or unsupported request shape: content the
// unified schema cannot represent for the target family, an invalid role,
// a non-string content part where the adapter requires one, and so on.
func BadRequest(format string, args ...any) *GatewayError {
	return &GatewayError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedModel reports a model id that does not match any dispatch rule.
func UnsupportedModel(modelID string) *GatewayError {
	return &GatewayError{Kind: KindUnsupportedModel, Message: fmt.Sprintf("model %q is not supported", modelID)}
}

// ValidationFailure reports a request body that the Bedrock backend itself
// rejected as invalid; like BadRequest it maps to HTTP 400.
func ValidationFailure(format string, args ...any) *GatewayError {
	return &GatewayError{Kind: KindValidationFailure, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure: a non-2xx response from Bedrock, a
// failed image fetch, a malformed backend payload the adapter could not
// parse.
func Internal(err error, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: KindInternalError, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err carries the given Kind, unwrapping through any
// wrapper errors along the way.
func Is(err error, kind Kind) bool {
	var ge *GatewayError
	for err != nil {
		if g, ok := err.(*GatewayError); ok {
			ge = g
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ge != nil && ge.Kind == kind
}
