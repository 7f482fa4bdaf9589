package core

import (
	"fmt"
	"sort"
	"strings"
)

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}

// ErrorValidation carries one message per offending json field
type ErrorValidation struct {
	Fields map[string]string
}

func (e ErrorValidation) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "Validation Failed (" + strings.Join(parts, ", ") + ")"
}

func NewErrorValidation(fields map[string]string) ErrorValidation {
	return ErrorValidation{Fields: fields}
}
