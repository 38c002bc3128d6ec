package impl

import "errors"

var (
	ErrEmptyPassword       = errors.New("empty password")
	ErrEmptyCredential     = errors.New("empty credential(s)")
	ErrInvalidHashEncoding = errors.New("invalid hash encoding")
)
