package armorvox

import (
	"errors"
	"fmt"
)

// Sentinel errors. Configuration and precondition problems are detected
// before any network I/O; callers get one uniform failure channel for
// "could not even ask the server".
var (
	// ErrBaseURL means the configured base URL is unusable.
	ErrBaseURL = errors.New("armorvox: invalid base URL")

	// ErrSessionID means the session identifier exceeds the server's
	// 100-character limit.
	ErrSessionID = errors.New("armorvox: session ID too long")

	// ErrUtteranceCount means an operation was given the wrong number
	// of utterances (or phrases) for its protocol shape.
	ErrUtteranceCount = errors.New("armorvox: wrong utterance count")
)

// ParseError reports a response body that was not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("armorvox: parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
