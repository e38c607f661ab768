// Package worker defines the data model shared by every subsystem that
// executes a worker: the parsed worker definition, the conversation message
// types, tool call/result payloads, and the provider-agnostic language model
// contract. Other packages (parse, sandbox, tools, executor, runtime) build
// on these types but never mutate them after construction.
package worker

import "fmt"

type (
	// WorkerDefinition is the immutable, parsed form of a worker file. Once
	// constructed by the parse package it is never mutated; WorkerRunner
	// instances hold a reference to it for the lifetime of a run.
	WorkerDefinition struct {
		// Name is the worker's non-empty identifier.
		Name string
		// Description is an optional human-readable summary.
		Description string
		// Instructions is the system prompt body (trailing whitespace stripped).
		Instructions string
		// Model is an optional "provider:model" identifier.
		Model string
		// CompatibleModels optionally restricts Model to a glob allow-list.
		// A non-nil, empty slice is a configuration error (see modelcompat).
		CompatibleModels []string
		// MaxContextTokens is parsed but, per spec, not enforced by the
		// reason/act loop itself; callers may use it for a pre-send check.
		MaxContextTokens int
		// AllowEmptyInput permits Run with an empty input string.
		AllowEmptyInput bool
		// Locked marks the worker as read-only to authoring tools. The core
		// runtime does not interpret this field; it is carried for callers.
		Locked bool
		// Toolsets maps toolset name to its raw configuration.
		Toolsets map[string]ToolsetConfig
		// Sandbox optionally describes the capability-scoped filesystem
		// available to this worker's tools.
		Sandbox *SandboxSpec
		// AttachmentPolicy constrains user-supplied attachments.
		AttachmentPolicy *AttachmentPolicy
	}

	// ToolsetConfig is the raw, per-toolset configuration block from the
	// worker file. Toolset factories decode the fields they recognize and
	// ignore the rest.
	ToolsetConfig map[string]any

	// SandboxSpec configures a Sandbox (see package sandbox). Exactly one of
	// Root+Zones or Mounts is expected to be meaningful; Sandbox.New accepts
	// either shape.
	SandboxSpec struct {
		// Root is the filesystem root the sandbox resolves logical paths
		// against when Zones is used.
		Root string
		// Zones maps path prefixes under Root to a permission mode.
		Zones []ZoneSpec
		// Mounts lists explicit mount points, each with its own backing path
		// and permission mode, used instead of a single Root+Zones tree.
		Mounts []MountSpec
	}

	// ZoneSpec declares a permission zone rooted at Prefix.
	ZoneSpec struct {
		// Name labels the zone for diagnostics and approval prompts.
		Name string
		// Prefix is the logical path prefix this zone governs (e.g. "/", "/out").
		Prefix string
		// Mode is either "ro" or "rw".
		Mode string
	}

	// MountSpec declares an explicit mount point.
	MountSpec struct {
		// Name labels the mount for diagnostics and approval prompts.
		Name string
		// Prefix is the logical path prefix exposed to tools.
		Prefix string
		// Path is the backing on-disk path.
		Path string
		// Mode is either "ro" or "rw".
		Mode string
	}

	// AttachmentPolicy bounds the attachments a caller may pass into Run.
	AttachmentPolicy struct {
		// MaxAttachments caps the number of attachments. Zero means no cap.
		MaxAttachments int
		// MaxTotalBytes caps the sum of attachment byte sizes. Zero means no cap.
		MaxTotalBytes int64
		// AllowedSuffixes, when non-empty, is the exclusive allow-list of file
		// extensions (including the leading dot, e.g. ".png").
		AllowedSuffixes []string
		// DeniedSuffixes is checked before AllowedSuffixes and always wins.
		DeniedSuffixes []string
	}

	// Attachment is a single file supplied alongside user input.
	Attachment struct {
		// Name is the attachment's file name, used for suffix checks.
		Name string
		// MimeType is the caller-supplied content type.
		MimeType string
		// Bytes holds the raw attachment content.
		Bytes []byte
	}
)

// Validate enforces p against the supplied attachments, returning
// AttachmentPolicyViolationError on the first violation found. A nil policy
// never rejects attachments.
func (p *AttachmentPolicy) Validate(atts []Attachment) error {
	if p == nil || len(atts) == 0 {
		return nil
	}
	if p.MaxAttachments > 0 && len(atts) > p.MaxAttachments {
		return &AttachmentPolicyViolationError{
			Reason: fmt.Sprintf("too many attachments: got %d, max %d", len(atts), p.MaxAttachments),
		}
	}
	var total int64
	for _, a := range atts {
		total += int64(len(a.Bytes))
		if denied(p.DeniedSuffixes, a.Name) {
			return &AttachmentPolicyViolationError{
				Reason: fmt.Sprintf("attachment %q has a denied suffix", a.Name),
			}
		}
		if len(p.AllowedSuffixes) > 0 && !denied(p.AllowedSuffixes, a.Name) {
			return &AttachmentPolicyViolationError{
				Reason: fmt.Sprintf("attachment %q does not match allowed suffixes", a.Name),
			}
		}
	}
	if p.MaxTotalBytes > 0 && total > p.MaxTotalBytes {
		return &AttachmentPolicyViolationError{
			Reason: fmt.Sprintf("attachments total %d bytes, max %d", total, p.MaxTotalBytes),
		}
	}
	return nil
}

// denied reports whether name's suffix matches any entry in suffixes.
func denied(suffixes []string, name string) bool {
	for _, s := range suffixes {
		if len(name) >= len(s) && name[len(name)-len(s):] == s {
			return true
		}
	}
	return false
}
