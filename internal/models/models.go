// package models defines the data model for the festival client
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrValidation is wrapped by every [Validator] failure.
var ErrValidation = errors.New("validation failed")

// Validator is implemented by request bodies that check field presence before they are sent.
type Validator interface {
	Validate() error
}

// missing returns a validation error naming the empty fields, or nil when every field is set.
func missing(fields map[string]string) error {
	var empty []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			empty = append(empty, name)
		}
	}
	if len(empty) == 0 {
		return nil
	}
	sort.Strings(empty)
	return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(empty, ", "))
}
