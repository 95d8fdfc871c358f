package query

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
)

// Method describes the repository method a query was derived from.
type Method struct {
	Name   string `yaml:"name"`
	Region string `yaml:"region"`
	// Query is the declared query text. It is required for native methods.
	Query  string `yaml:"query"`
	Native bool   `yaml:"native"`
}

// Validate checks the method declaration.
func (m *Method) Validate() error {
	err := validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Query, validation.When(m.Native, validation.Required.Error("is required for native queries"))),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid query method").
			WithTextCode("INVALID_QUERY_METHOD").
			WithMetadata(map[string]any{"method": m.Name})
	}
	return nil
}

// Namespace identifies the method for logging and caching.
func (m *Method) Namespace() string {
	if m == nil {
		return ""
	}
	if m.Region == "" {
		return m.Name
	}
	return m.Region + "." + m.Name
}

// queryText returns query, or the declared query when query is empty.
func (m *Method) queryText(query string) string {
	if query != "" || m == nil {
		return query
	}
	return m.Query
}
