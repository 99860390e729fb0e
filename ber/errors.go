package ber

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrTruncated        = errors.New("ber: truncated data")
	ErrIndefiniteLength = errors.New("ber: indefinite length not supported")
	ErrLengthTooLarge   = errors.New("ber: length too large")
	ErrHighTagNumber    = errors.New("ber: high tag number form not supported")
	ErrEmptyInteger     = errors.New("ber: integer has no content octets")
	ErrIntegerOverflow  = errors.New("ber: integer overflow")
	ErrInvalidOID       = errors.New("ber: invalid object identifier")
	ErrInvalidIPAddress = errors.New("ber: invalid IpAddress")
	ErrInvalidNull      = errors.New("ber: NULL with content")
)

// UnexpectedTagError is returned when a TLV carries a different tag than the
// grammar requires at that position.
type UnexpectedTagError struct {
	Want Tag
	Got  Tag
}

// Error implements the error interface.
func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("ber: expected %s, got %s", e.Want, e.Got)
}
