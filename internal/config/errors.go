package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies configuration and environment failures. These abort a
// check before it can evaluate any policy and are never reported as policy
// violations.
type ErrorKind string

const (
	KindMissingFile     ErrorKind = "missing-file"
	KindMalformed       ErrorKind = "malformed"
	KindMissingField    ErrorKind = "missing-field"
	KindInvalidValue    ErrorKind = "invalid-value"
	KindMissingArtifact ErrorKind = "missing-artifact"
	KindToolFailure     ErrorKind = "tool-failure"
)

// Error is the single error type returned by checks that could not run.
type Error struct {
	Kind    ErrorKind
	Path    string
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := []string{string(e.Kind)}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key %q", e.Key))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err (or anything it wraps) is a *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// KindOf returns the kind of a wrapped *Error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func MissingFile(path string, err error) *Error {
	return &Error{Kind: KindMissingFile, Path: path, Message: "required file not found", Err: err}
}

func Malformed(path string, err error) *Error {
	return &Error{Kind: KindMalformed, Path: path, Message: "cannot parse document", Err: err}
}

func MissingField(path, key string) *Error {
	return &Error{Kind: KindMissingField, Path: path, Key: key, Message: "required field is absent"}
}

func InvalidValue(path, key, message string) *Error {
	return &Error{Kind: KindInvalidValue, Path: path, Key: key, Message: message}
}

func MissingArtifact(path, message string) *Error {
	return &Error{Kind: KindMissingArtifact, Path: path, Message: message}
}

func ToolFailure(tool, message string, err error) *Error {
	return &Error{Kind: KindToolFailure, Path: tool, Message: message, Err: err}
}
