package requester

import (
	"errors"
	"net/http"
	"syscall"
)

// Classify maps a finished exchange onto an error category. It returns nil on
// success (status 200 to 399).
func Classify(resp *Response, transportErr error) *APIError {
	if transportErr != nil {
		if IsNoInternet(transportErr) {
			return newAPIError(NoInternetConnection, nil, nil)
		}
		return newAPIError(Other, nil, transportErr)
	}
	if resp == nil {
		return newAPIError(Other, nil, errors.New("transport returned no response"))
	}

	switch code := resp.StatusCode; {
	case code >= http.StatusInternalServerError:
		return newAPIError(ResponseUnsuccessful, resp, nil)
	case code == http.StatusBadRequest:
		return newAPIError(BadRequest, resp, nil)
	case code == http.StatusUnauthorized:
		return newAPIError(Unauthorized, resp, nil)
	case code == http.StatusForbidden:
		return newAPIError(Forbidden, resp, nil)
	case code == http.StatusNotFound:
		return newAPIError(NotFound, resp, nil)
	case code == http.StatusUnprocessableEntity:
		return newAPIError(UnprocessableEntity, resp, nil)
	case code >= http.StatusBadRequest:
		return newAPIError(ResponseUnsuccessful, resp, nil)
	case code >= http.StatusOK:
		return nil
	default:
		// informational statuses never reach a caller as a final response
		return newAPIError(ResponseUnsuccessful, resp, nil)
	}
}

// retainsBody reports whether the body survives classification. Server errors
// and transport failures drop it.
func retainsBody(apiErr *APIError) bool {
	if apiErr == nil {
		return true
	}
	if apiErr.Response == nil {
		return false
	}
	return apiErr.Response.StatusCode < http.StatusInternalServerError
}

// IsNoInternet reports whether err means the network cannot be reached at all
func IsNoInternet(err error) bool {
	switch {
	case errors.Is(err, ErrNetworkUnreachable):
		return true
	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ENETDOWN),
		errors.Is(err, syscall.EHOSTUNREACH):
		return true
	default:
		return false
	}
}
