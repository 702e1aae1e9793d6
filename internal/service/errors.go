package service

import "errors"

// ErrInvalidArgument marks request validation failures. Nothing is mutated
// and no outbound call is made when it is returned.
var ErrInvalidArgument = errors.New("invalid argument")
