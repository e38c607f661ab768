package sandbox

import "fmt"

type (
	// NotFoundError reports a missing file, directory, or zone.
	NotFoundError struct{ Path string }

	// InvalidPathError reports a path that fails normalization or escapes
	// every configured zone/mount (for example, via "..").
	InvalidPathError struct {
		Path   string
		Reason string
	}

	// ReadOnlyError reports a write/delete attempted against a read-only zone.
	ReadOnlyError struct {
		Path string
		Zone string
	}

	// BinaryRefusedError reports a read refused because the file is (or
	// appears to be) binary.
	BinaryRefusedError struct {
		Path string
		Hint string
	}

	// PermissionEscalationError reports an operation that would grant more
	// access than the sandbox's configured policy allows.
	PermissionEscalationError struct {
		Path   string
		Reason string
	}
)

func (e *NotFoundError) Error() string { return fmt.Sprintf("sandbox: not found: %s", e.Path) }

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("sandbox: invalid path %q: %s", e.Path, e.Reason)
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("sandbox: %s is read-only (zone %q)", e.Path, e.Zone)
}

func (e *BinaryRefusedError) Error() string {
	return fmt.Sprintf("sandbox: refusing to read binary file %s: %s", e.Path, e.Hint)
}

func (e *PermissionEscalationError) Error() string {
	return fmt.Sprintf("sandbox: permission escalation on %s: %s", e.Path, e.Reason)
}
