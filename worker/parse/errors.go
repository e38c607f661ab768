package parse

import (
	"fmt"
	"strings"
)

type (
	// Issue reports a single schema violation at Path.
	Issue struct {
		Path    string
		Message string
	}

	// InvalidFrontmatterError reports a malformed frontmatter block: a
	// missing fence, unbalanced fence, or invalid YAML.
	InvalidFrontmatterError struct {
		Reason string
	}

	// InvalidWorkerDefinitionError reports one or more schema violations
	// found while validating the frontmatter or the composite worker
	// definition.
	InvalidWorkerDefinitionError struct {
		Issues []Issue
	}

	// IOError wraps a failure to read the underlying worker file source.
	IOError struct {
		Cause error
	}
)

func (e *InvalidFrontmatterError) Error() string {
	return fmt.Sprintf("invalid frontmatter: %s", e.Reason)
}

func (e *InvalidWorkerDefinitionError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", iss.Path, iss.Message)
	}
	return fmt.Sprintf("invalid worker definition: %s", strings.Join(parts, "; "))
}

func (e *IOError) Error() string { return fmt.Sprintf("worker file io error: %v", e.Cause) }
func (e *IOError) Unwrap() error { return e.Cause }
