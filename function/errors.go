package function

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

const (
	codeInvalidFunction    = "INVALID_FUNCTION"
	codeDuplicateParameter = "DUPLICATE_PARAMETER"
	codeRegionConflict     = "REGION_PARAMETER_CONFLICT"
	codeInvalidPosition    = "INVALID_PARAMETER_POSITION"
	codeArgumentCount      = "ARGUMENT_COUNT_MISMATCH"
	codeArgumentType       = "ARGUMENT_TYPE_MISMATCH"
)

// IsConfigurationError reports whether err was raised by a misdeclared function or a resolver
// that cannot satisfy the declared parameter list.
func IsConfigurationError(err error) bool {
	return errors.IsCategory(err, errors.CategoryValidation)
}

func configError(method, code, format string, args ...any) *errors.Error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryValidation).
		WithTextCode(code).
		WithMetadata(map[string]any{"method": method})
}
