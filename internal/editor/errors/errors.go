package errors

import "errors"

var (
	ErrTableNotFound = errors.New("table not found")

	ErrDuplicateNumber = errors.New("table number already used in zone")

	ErrInvalidTableID = errors.New("invalid table ID")
)
