package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrOutOfStock      = errors.New("book out of stock")
	ErrPolicyViolation = errors.New("policy violation")
	ErrNotAMember      = errors.New("student is not a member of the request")
	ErrInvalidState    = errors.New("invalid state")
	ErrStudentID       = errors.New("student id is required")
)

type ValidationErrorResponse struct {
	Message string `json:"message"`
	Errors  struct {
		AdditionalProperties string `json:"additionalProperties"`
	} `json:"errors"`
}
