package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SecretMask is the placeholder stored in place of a header value once the
// real value has been moved to the secret store.
const SecretMask = "**********"

// ExtensionHeader is an HTTP header sent when invoking the extension. The
// value is masked after first save; the secret store holds the real value
// keyed by the header id.
type ExtensionHeader struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtensionFunction holds a function definition as a JSON schema document.
// Its id is assigned once and never reassigned across updates.
type ExtensionFunction struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Endpoint     string `json:"endpoint"`
	EndpointType string `json:"endpointType"`
	IsOpen       bool   `json:"isOpen"`
}

// Extension is a user-defined tool definition. Published extensions are
// usable by any user; unpublished ones only by their creator.
type Extension struct {
	ID             string              `json:"id"`
	Type           RecordType          `json:"type"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	ExecutionSteps string              `json:"executionSteps"`
	OwnerUserID    string              `json:"userId"`
	Headers        []ExtensionHeader   `json:"headers"`
	Functions      []ExtensionFunction `json:"functions"`
	IsPublished    bool                `json:"isPublished"`
	IsDeleted      bool                `json:"isDeleted"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// functionSchema is the subset of the function JSON document we validate.
type functionSchema struct {
	Name string `json:"name"`
}

// ValidateExtension validates an Extension instance, including every
// function definition. Function names must parse out of the schema JSON, be
// non-empty, contain no spaces and be unique within the extension.
func ValidateExtension(e *Extension) error {
	if e == nil {
		return fmt.Errorf("extension cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("extension ID is required")
	}

	if e.Name == "" {
		return fmt.Errorf("extension Name is required")
	}

	if e.OwnerUserID == "" {
		return fmt.Errorf("extension OwnerUserID is required")
	}

	if len(e.Functions) == 0 {
		return ErrNoExtensionFunctions
	}

	seen := make(map[string]struct{}, len(e.Functions))
	for _, f := range e.Functions {
		var schema functionSchema
		if err := json.Unmarshal([]byte(f.Code), &schema); err != nil {
			return NewDomainErrorWithCause(ErrCodeValidation, "error validating function schema", err)
		}

		name := schema.Name
		if name == "" {
			return ErrMissingFunctionName
		}

		if strings.Contains(name, " ") {
			return NewDomainError(ErrCodeValidation, fmt.Sprintf("function name %q cannot contain spaces", name))
		}

		if _, ok := seen[name]; ok {
			return NewDomainError(ErrCodeValidation, fmt.Sprintf("duplicate function name %q, please use a different name", name))
		}
		seen[name] = struct{}{}
	}

	return nil
}
