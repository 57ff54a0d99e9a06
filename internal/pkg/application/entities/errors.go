package entities

import (
	"errors"
	"strings"
)

var ErrAlreadyExists = errors.New("already exists")
var ErrBadRequest = errors.New("bad request")
var ErrNotAllowed = errors.New("not allowed")
var ErrNotFound = errors.New("not found")
var ErrUnknownKind = errors.New("unknown kind")
var ErrValidationFailed = errors.New("validation failed")

type appError struct {
	msg    string
	target error
}

func (e appError) Error() string        { return e.msg }
func (e appError) Is(target error) bool { return target == e.target }

func NewAlreadyExistsError(msg string) error {
	return &appError{msg: msg, target: ErrAlreadyExists}
}

func NewBadRequestError(msg string) error {
	return &appError{msg: msg, target: ErrBadRequest}
}

func NewNotAllowedError(msg string) error {
	return &appError{msg: msg, target: ErrNotAllowed}
}

func NewNotFoundError(msg string) error {
	return &appError{msg: msg, target: ErrNotFound}
}

func NewUnknownKindError(kind string) error {
	return &appError{msg: "unknown kind " + kind, target: ErrUnknownKind}
}

// ValidationError carries the messages of every violated policy
type ValidationError struct {
	Violations []string
}

func (e ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, ", ")
}

func (e ValidationError) Is(target error) bool { return target == ErrValidationFailed }
