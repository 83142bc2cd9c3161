package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("email or username already in use")
	ErrReservedUsername   = errors.New("username is reserved")
	ErrSamePassword       = errors.New("new password matches the current one")
	ErrWrongPassword      = errors.New("current password is incorrect")

	// ErrNotAuthor is returned when someone other than the recipe author
	// attempts a mutation.
	ErrNotAuthor = errors.New("only the author may modify the recipe")

	// ErrNotInList is returned by cart/favorite removal when the (user,
	// recipe) pair is absent.
	ErrNotInList = errors.New("recipe is not in the list")

	ErrSelfFollow   = errors.New("cannot subscribe to yourself")
	ErrNotFollowing = errors.New("not subscribed to this author")
)

// ValidationError is a field-keyed payload validation failure. Handlers
// render it as {"<field>": "<message>"} with status 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "this field is required"}
}
