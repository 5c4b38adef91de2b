package model

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrInvalidParameter = errors.New("") // Base error for invalid parameter
var ErrDataNotFound = errors.New("")     // Base error for data not found
var ErrRemote = errors.New("")           // Base error for failures reported by the remote API

var ErrEntityNotFound = fmt.Errorf("%w", ErrDataNotFound)

// ErrFromHttpStatus maps a non-2xx status of the remote API onto the base errors.
func ErrFromHttpStatus(status int) error {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrInvalidParameter
	case status == http.StatusNotFound:
		return ErrEntityNotFound
	default:
		return ErrRemote
	}
}
