package profile

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind classifies failures so adapters can pick a response.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
	KindNotImpl    ErrorKind = "not_implemented"
)

var kindCategories = map[ErrorKind]errorslib.Category{
	KindValidation: errorslib.CategoryValidation,
	KindNotFound:   errorslib.CategoryNotFound,
	KindTimeout:    errorslib.CategoryOperation,
	KindCanceled:   errorslib.CategoryOperation,
	KindNotImpl:    errorslib.CategoryOperation,
	KindInternal:   errorslib.CategoryInternal,
}

// Category returns the go-errors category for the kind. Unknown kinds are internal.
func (k ErrorKind) Category() errorslib.Category {
	if category, ok := kindCategories[k]; ok {
		return category
	}
	return errorslib.CategoryInternal
}

// ProfileError is a failure tied to the profile, optionally to one content
// key or copy label.
type ProfileError struct {
	Kind ErrorKind
	Key  string
	Msg  string
	Err  error
}

func (e *ProfileError) Error() string {
	msg := e.Msg
	if e.Key != "" && msg == "" {
		msg = e.Key
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// NewError creates an error not tied to a key.
func NewError(kind ErrorKind, msg string, err error) *ProfileError {
	return &ProfileError{Kind: kind, Msg: msg, Err: err}
}

// KeyError creates an error for one content key or copy label.
func KeyError(kind ErrorKind, key, msg string, err error) *ProfileError {
	return &ProfileError{Kind: kind, Key: key, Msg: msg, Err: err}
}

// ErrorKey returns the key recorded on err, if any.
func ErrorKey(err error) string {
	var profileErr *ProfileError
	if errors.As(err, &profileErr) {
		return profileErr.Key
	}
	return ""
}

// KindFromError maps an error to its kind. Context errors keep their meaning
// even when they were never wrapped.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var profileErr *ProfileError
	switch {
	case errors.As(err, &profileErr):
		return profileErr.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}

// AsGoError converts err for transport. The kind becomes the text code and a
// recorded key is exposed as the "key" metadata entry.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}
	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()
	var profileErr *ProfileError
	if errors.As(err, &profileErr) && profileErr.Msg != "" {
		msg = profileErr.Msg
	}

	mapped := errorslib.New(msg, kind.Category()).WithTextCode(string(kind))
	if key := ErrorKey(err); key != "" {
		mapped = mapped.WithMetadata(map[string]any{"key": key})
	}
	return mapped
}
