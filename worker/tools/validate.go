package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchema lazily compiles and caches a tool's JSON Schema so repeated
// validation across many concurrent calls in a run does not re-parse it
// every time. It is embedded by value in Tool; callers must share Tool by
// pointer so the sync.Once is not copied.
type compiledSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// FieldIssue reports one schema violation, mirroring the teacher's
// runtime/agent/tools.FieldIssue shape for downstream UIs.
type FieldIssue struct {
	Field   string
	Message string
}

// ValidationError aggregates the FieldIssues found by Validate.
type ValidationError struct {
	ToolName string
	Issues   []FieldIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tools: %s: %d argument validation issue(s)", e.ToolName, len(e.Issues))
}

// Validate compiles t.InputSchema on first use and checks args against it.
// A nil or empty InputSchema accepts any object.
func (t *Tool) Validate(args map[string]any) error {
	if len(t.InputSchema) == 0 {
		return nil
	}
	t.schema.once.Do(func() {
		t.schema.schema, t.schema.err = compile(t.Name, t.InputSchema)
	})
	if t.schema.err != nil {
		return fmt.Errorf("tools: %s: compiling input schema: %w", t.Name, t.schema.err)
	}
	if err := t.schema.schema.Validate(args); err != nil {
		return toValidationError(t.Name, err)
	}
	return nil
}

func compile(name string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	resourceName := "tool:" + name
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, err
	}
	return c.Compile(resourceName)
}

func toValidationError(name string, err error) error {
	ve := &ValidationError{ToolName: name}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		for _, cause := range verr.Causes {
			ve.Issues = append(ve.Issues, FieldIssue{
				Field:   joinPointer(cause.InstanceLocation),
				Message: cause.Error(),
			})
		}
		if len(ve.Issues) == 0 {
			ve.Issues = append(ve.Issues, FieldIssue{Field: joinPointer(verr.InstanceLocation), Message: verr.Error()})
		}
		return ve
	}
	ve.Issues = append(ve.Issues, FieldIssue{Field: "", Message: err.Error()})
	return ve
}

func joinPointer(loc []string) string {
	if len(loc) == 0 {
		return "<root>"
	}
	out := ""
	for _, p := range loc {
		out += "/" + p
	}
	return out
}
