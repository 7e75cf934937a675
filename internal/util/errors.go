package util

import "errors"

var (
	ErrBlankAnswer     = errors.New("answer must not be blank")
	ErrDeckComplete    = errors.New("deck already complete")
	ErrDeckEmpty       = errors.New("deck has no questions")
	ErrNoDeckLoaded    = errors.New("no deck loaded")
	ErrSessionNotFound = errors.New("session not found")
	ErrDeckNotFound    = errors.New("deck not found")
	ErrDeckMalformed   = errors.New("malformed deck")
)
