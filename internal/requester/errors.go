package requester

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a failed request
type ErrorKind int

const (
	ConnectionError ErrorKind = iota + 1
	NoInternetConnection
	BadRequest
	Unauthorized
	Forbidden
	NotFound
	UnprocessableEntity
	MethodNotAllowed
	ResponseUnsuccessful
	JSONDecodingError
	InvalidEndpointAPIDefinition
	Other
)

var kindNames = map[ErrorKind]string{
	ConnectionError:              "connection_error",
	NoInternetConnection:         "no_internet_connection",
	BadRequest:                   "bad_request",
	Unauthorized:                 "unauthorized",
	Forbidden:                    "forbidden",
	NotFound:                     "not_found",
	UnprocessableEntity:          "unprocessable_entity",
	MethodNotAllowed:             "method_not_allowed",
	ResponseUnsuccessful:         "response_unsuccessful",
	JSONDecodingError:            "json_decoding_error",
	InvalidEndpointAPIDefinition: "invalid_endpoint_api_definition",
	Other:                        "other",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// description is the human readable text of a kind
func (k ErrorKind) description() string {
	switch k {
	case ConnectionError:
		return "Request Failed"
	case NoInternetConnection:
		return "No internet"
	case BadRequest:
		return "Invalid Data"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not Found"
	case UnprocessableEntity:
		return "Unprocessable Entity"
	case MethodNotAllowed:
		return "Method Not Allowed"
	case ResponseUnsuccessful:
		return "Response Unsuccessful"
	case JSONDecodingError:
		return "JSON Deserialization Failure"
	case InvalidEndpointAPIDefinition:
		return "malformed endpoint definition"
	default:
		return "Unknown Error"
	}
}

// APIError is the single error type delivered by the requester
type APIError struct {
	Kind ErrorKind
	// Response is the raw response when one was received
	Response *Response
	// Cause is the underlying error, if any
	Cause error
}

func newAPIError(kind ErrorKind, resp *Response, cause error) *APIError {
	return &APIError{Kind: kind, Response: resp, Cause: cause}
}

func (e *APIError) Error() string {
	switch e.Kind {
	case JSONDecodingError, InvalidEndpointAPIDefinition:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind.description(), e.Cause)
		}
	case Other:
		if e.Cause != nil {
			return e.Cause.Error()
		}
	}
	return e.Kind.description()
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches another *APIError of the same kind, which makes the Err* sentinels
// usable with errors.Is.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode returns the HTTP status of the attached response, or 0
func (e *APIError) StatusCode() int {
	if e == nil || e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Sentinels for errors.Is
var (
	ErrConnection           = &APIError{Kind: ConnectionError}
	ErrNoInternet           = &APIError{Kind: NoInternetConnection}
	ErrBadRequest           = &APIError{Kind: BadRequest}
	ErrUnauthorized         = &APIError{Kind: Unauthorized}
	ErrForbidden            = &APIError{Kind: Forbidden}
	ErrNotFound             = &APIError{Kind: NotFound}
	ErrUnprocessableEntity  = &APIError{Kind: UnprocessableEntity}
	ErrMethodNotAllowed     = &APIError{Kind: MethodNotAllowed}
	ErrResponseUnsuccessful = &APIError{Kind: ResponseUnsuccessful}
	ErrJSONDecoding         = &APIError{Kind: JSONDecodingError}
	ErrInvalidEndpoint      = &APIError{Kind: InvalidEndpointAPIDefinition}
	ErrOther                = &APIError{Kind: Other}
)

// ErrNetworkUnreachable can be returned (or wrapped) by a Transport to signal
// that the network is unreachable.
var ErrNetworkUnreachable = errors.New("network is unreachable")

// AsAPIError extracts an *APIError from err
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
