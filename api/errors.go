package api

import "fmt"

// BusinessError is an application-level failure: the transport succeeded but
// the response envelope carried a non-success code.
type BusinessError struct {
	Code int
	Msg  string
}

func (e *BusinessError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("business error (code %d)", e.Code)
}

// NetworkError is a transport-level failure with no usable response.
type NetworkError struct {
	Msg string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "network error"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-auth transport status the caller must see (404, 500, ...).
type HTTPError struct {
	StatusCode int
	Msg        string
}

func (e *HTTPError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("unexpected http status %d", e.StatusCode)
}
