package store

import "errors"

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrDuplicateKey         = errors.New("already exists")
	ErrAlreadyFinalized     = errors.New("assessment already reached a terminal status")
	ErrInvalidTerminalState = errors.New("invalid terminal status")
)
