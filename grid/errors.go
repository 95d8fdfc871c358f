package grid

import (
	"github.com/goliatone/go-errors"
)

// CategoryGrid groups errors raised by grid implementations.
const CategoryGrid = errors.Category("grid")

var (
	// ErrUnsupportedQuery is returned by a QueryService for query shapes it cannot run.
	ErrUnsupportedQuery = errors.New("query shape is not supported", errors.CategoryBadInput).
				WithTextCode("UNSUPPORTED_QUERY")

	// ErrNoMembers is returned when a target resolves to an empty member set.
	ErrNoMembers = errors.New("no members available for execution", CategoryGrid).
			WithTextCode("NO_MEMBERS")

	// ErrFunctionNotFound is returned when a function id is not registered.
	ErrFunctionNotFound = errors.New("function is not registered", errors.CategoryNotFound).
				WithTextCode("FUNCTION_NOT_FOUND")
)

// IsUnsupportedQuery reports whether err marks a query shape the service cannot run.
// Wrapping an *errors.Error clones it, so the text code is checked as well as identity.
func IsUnsupportedQuery(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupportedQuery) {
		return true
	}
	var e *errors.Error
	return errors.As(err, &e) && e.TextCode == ErrUnsupportedQuery.TextCode
}
