package models

import "errors"

// Fatal conditions. Everything else is absorbed and surfaced through
// diagnostics.
var (
	ErrInputNotFound      = errors.New("input not found")
	ErrInputUnreadable    = errors.New("input unreadable")
	ErrEntryPointNotFound = errors.New("entry point not found")
)
