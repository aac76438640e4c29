package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrRequestFailed is returned for every failed blog API call, whether the
	// network failed or the envelope reported success=false.
	ErrRequestFailed = errors.New("request failed")

	// ErrBusy is returned by BeginSubmit while another submit is in flight.
	ErrBusy = errors.New("submit already in flight")
)

// RequestError describes a failed blog API call.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// Message returns the text to show to the user for err.
func Message(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
