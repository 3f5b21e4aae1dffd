package integration

import (
	"strings"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// MissingInputs returns the names in required that are absent from record or
// set to the empty string. Dotted names address nested objects.
func MissingInputs(record integration.Record, required []string) []string {
	var missing []string
	for _, name := range required {
		if !hasInput(record, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireInputs wraps MissingInputs into a validation error.
func RequireInputs(record integration.Record, required []string) error {
	if missing := MissingInputs(record, required); len(missing) > 0 {
		return integration.NewMissingParametersError(missing)
	}
	return nil
}

func hasInput(record integration.Record, name string) bool {
	segments := strings.Split(name, ".")
	current := record
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current.Map(segment)
		if !ok {
			return false
		}
		current = next
	}
	v, ok := current[segments[len(segments)-1]]
	if !ok {
		return false
	}
	s, isString := v.(string)
	return !isString || s != ""
}
