package client

import "errors"

var (
	ErrUsage          = errors.New("usage")
	ErrUnknownCommand = errors.New("unknown command")
	ErrRecordNotFound = errors.New("record not found")
)
