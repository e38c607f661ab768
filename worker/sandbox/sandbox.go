// Package sandbox implements the zone/mount-scoped filesystem abstraction
// every tool's file I/O must pass through (spec §4.2). A Sandbox resolves
// logical paths to backing on-disk paths, enforces read-only/read-write
// policy per zone, and refuses binary reads before touching disk.
package sandbox

import (
	"github.com/zby/golem-forge-sub002/worker"
)

// FileOperations is the structural interface a filesystem-backed toolset
// programs against, so tools depend on capability rather than on *Sandbox
// concretely (spec §9's "small, orthogonal interfaces" design note).
type FileOperations interface {
	Read(logicalPath string) (string, error)
	Write(logicalPath string, content []byte) error
	List(logicalPath string) ([]string, error)
	Delete(logicalPath string) error
	Exists(logicalPath string) (bool, error)
	Stat(logicalPath string) (StatResult, error)
	CheckPermission(op, logicalPath string) (allowed bool, zoneName string, decision PermissionDecision, reason string)
}

// Sandbox is a capability-scoped filesystem. All operations take logical
// paths (always absolute, always "/"-rooted) and never leak the backing
// on-disk layout to callers beyond what Stat/zone name reports.
type Sandbox struct {
	zones []resolvedZone
}

var _ FileOperations = (*Sandbox)(nil)

// New constructs a Sandbox from a worker.SandboxSpec. Exactly one of
// spec.Zones or spec.Mounts should be populated; if both are, both are
// honored: resolve() prefers the longest/most specific prefix, and on
// identical prefixes the entry declared first wins, so a zone takes
// precedence over a mount with the same prefix (mounts are appended after
// zones).
func New(spec *worker.SandboxSpec) (*Sandbox, error) {
	if spec == nil {
		return nil, &worker.InvalidConfigError{Reason: "sandbox: nil spec"}
	}
	sb := &Sandbox{}
	for _, z := range spec.Zones {
		if z.Mode != "ro" && z.Mode != "rw" {
			return nil, &worker.InvalidConfigError{Reason: "sandbox: zone " + z.Name + " has invalid mode " + z.Mode}
		}
		root := spec.Root
		if root == "" {
			root = "/"
		}
		sb.zones = append(sb.zones, resolvedZone{
			Name:   z.Name,
			Mode:   z.Mode,
			fsRoot: joinRoot(root, z.Prefix),
			prefix: normalizedOrRoot(z.Prefix),
		})
	}
	for _, m := range spec.Mounts {
		if m.Mode != "ro" && m.Mode != "rw" {
			return nil, &worker.InvalidConfigError{Reason: "sandbox: mount " + m.Name + " has invalid mode " + m.Mode}
		}
		sb.zones = append(sb.zones, resolvedZone{
			Name:   m.Name,
			Mode:   m.Mode,
			fsRoot: m.Path,
			prefix: normalizedOrRoot(m.Prefix),
		})
	}
	if len(sb.zones) == 0 {
		return nil, &worker.InvalidConfigError{Reason: "sandbox: no zones or mounts configured"}
	}
	return sb, nil
}

func normalizedOrRoot(p string) string {
	n, err := normalize(p)
	if err != nil {
		return "/"
	}
	return n
}

// joinRoot computes the backing directory for a zone rooted under root at
// prefix: the zone's backing storage mirrors the logical prefix under root.
func joinRoot(root, prefix string) string {
	n := normalizedOrRoot(prefix)
	if n == "/" {
		return root
	}
	return root + n
}

// PermissionDecision is the result of CheckPermission.
type PermissionDecision string

const (
	// PermissionPreApproved means the operation is read-only or otherwise
	// does not require explicit approval.
	PermissionPreApproved PermissionDecision = "preApproved"
	// PermissionAsk means the operation needs interactive approval.
	PermissionAsk PermissionDecision = "ask"
	// PermissionBlocked means the operation is forbidden outright (e.g.,
	// write/delete in a read-only zone).
	PermissionBlocked PermissionDecision = "blocked"
)

// CheckPermission reports whether op ("read", "write", "delete", "list",
// "stat", "exists") is allowed on path, and which zone governs it. The
// filesystem toolset uses this to decide whether a write or delete needs
// approval, per spec §4.2's zone-aware approval contract.
func (s *Sandbox) CheckPermission(op, logicalPath string) (allowed bool, zoneName string, decision PermissionDecision, reason string) {
	zone, _, err := s.resolve(logicalPath)
	if err != nil {
		return false, "", PermissionBlocked, err.Error()
	}
	switch op {
	case "write", "delete":
		if !zone.writable() {
			return false, zone.Name, PermissionBlocked, "zone " + zone.Name + " is read-only"
		}
		return true, zone.Name, PermissionAsk, ""
	default:
		return true, zone.Name, PermissionPreApproved, ""
	}
}

// statInfo is returned by Stat.
type statInfo struct {
	Path        string
	Size        int64
	IsDirectory bool
	CreatedAt   int64 // unix millis
	ModifiedAt  int64 // unix millis
}

// StatResult is the public Stat return type.
type StatResult = statInfo
