// Package parse reads ".worker" files (frontmatter-plus-body) into validated
// worker.WorkerDefinition values (spec §4.1).
package parse

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zby/golem-forge-sub002/worker"
)

// frontmatter mirrors the YAML shape declared by spec §6's worker file
// format. gopkg.in/yaml.v3 matches keys against the explicit yaml tags
// exactly, so key case matters.
type frontmatter struct {
	Name              string                    `yaml:"name"`
	Description       string                    `yaml:"description"`
	Model             string                    `yaml:"model"`
	CompatibleModels  *[]string                 `yaml:"compatible_models"`
	MaxContextTokens  int                       `yaml:"max_context_tokens"`
	AllowEmptyInput   bool                      `yaml:"allow_empty_input"`
	Locked            bool                      `yaml:"locked"`
	Toolsets          map[string]map[string]any `yaml:"toolsets"`
	Sandbox           *sandboxYAML              `yaml:"sandbox"`
	AttachmentPolicy  *attachmentPolicyYAML     `yaml:"attachment_policy"`
}

type sandboxYAML struct {
	Root   string        `yaml:"root"`
	Zones  []zoneYAML    `yaml:"zones"`
	Mounts []mountYAML   `yaml:"mounts"`
}

type zoneYAML struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`
	Mode   string `yaml:"mode"`
}

type mountYAML struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`
	Path   string `yaml:"path"`
	Mode   string `yaml:"mode"`
}

type attachmentPolicyYAML struct {
	MaxAttachments  int      `yaml:"max_attachments"`
	MaxTotalBytes   int64    `yaml:"max_total_bytes"`
	AllowedSuffixes []string `yaml:"allowed_suffixes"`
	DeniedSuffixes  []string `yaml:"denied_suffixes"`
}

// ParseFile reads path and parses it as a worker file.
func ParseFile(path string) (*worker.WorkerDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Cause: err}
	}
	return Parse(data)
}

// Parse parses the raw bytes of a worker file into a validated
// WorkerDefinition, following the four-step algorithm in spec §4.1:
// split frontmatter, validate it, construct the definition, and
// cross-validate the composite object.
func Parse(data []byte) (*worker.WorkerDefinition, error) {
	fmBytes, body, hasFrontmatter, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if hasFrontmatter {
		if err := yaml.Unmarshal(fmBytes, &fm); err != nil {
			return nil, &InvalidFrontmatterError{Reason: err.Error()}
		}
	}

	if issues := validateFrontmatter(fm); len(issues) > 0 {
		return nil, &InvalidWorkerDefinitionError{Issues: issues}
	}

	def := &worker.WorkerDefinition{
		Name:             fm.Name,
		Description:      fm.Description,
		Instructions:     strings.TrimRight(string(body), " \t\r\n"),
		Model:            fm.Model,
		MaxContextTokens: fm.MaxContextTokens,
		AllowEmptyInput:  fm.AllowEmptyInput,
		Locked:           fm.Locked,
	}
	if fm.CompatibleModels != nil {
		def.CompatibleModels = *fm.CompatibleModels
	}
	if len(fm.Toolsets) > 0 {
		def.Toolsets = make(map[string]worker.ToolsetConfig, len(fm.Toolsets))
		for name, cfg := range fm.Toolsets {
			def.Toolsets[name] = worker.ToolsetConfig(cfg)
		}
	}
	if fm.Sandbox != nil {
		def.Sandbox = convertSandbox(fm.Sandbox)
	}
	if fm.AttachmentPolicy != nil {
		def.AttachmentPolicy = &worker.AttachmentPolicy{
			MaxAttachments:  fm.AttachmentPolicy.MaxAttachments,
			MaxTotalBytes:   fm.AttachmentPolicy.MaxTotalBytes,
			AllowedSuffixes: fm.AttachmentPolicy.AllowedSuffixes,
			DeniedSuffixes:  fm.AttachmentPolicy.DeniedSuffixes,
		}
	}

	if issues := validateComposite(def); len(issues) > 0 {
		return nil, &InvalidWorkerDefinitionError{Issues: issues}
	}

	return def, nil
}

func convertSandbox(s *sandboxYAML) *worker.SandboxSpec {
	spec := &worker.SandboxSpec{Root: s.Root}
	for _, z := range s.Zones {
		spec.Zones = append(spec.Zones, worker.ZoneSpec{Name: z.Name, Prefix: z.Prefix, Mode: z.Mode})
	}
	for _, m := range s.Mounts {
		spec.Mounts = append(spec.Mounts, worker.MountSpec{Name: m.Name, Prefix: m.Prefix, Path: m.Path, Mode: m.Mode})
	}
	return spec
}

// validateFrontmatter checks field-level constraints on the raw frontmatter,
// before it has been merged with the body into a WorkerDefinition.
func validateFrontmatter(fm frontmatter) []Issue {
	var issues []Issue
	if strings.TrimSpace(fm.Name) == "" {
		issues = append(issues, Issue{Path: "name", Message: "must not be empty"})
	}
	if fm.CompatibleModels != nil && len(*fm.CompatibleModels) == 0 {
		issues = append(issues, Issue{Path: "compatible_models", Message: "declared but empty"})
	}
	if fm.MaxContextTokens < 0 {
		issues = append(issues, Issue{Path: "max_context_tokens", Message: "must not be negative"})
	}
	for name, cfg := range fm.Toolsets {
		if cfg == nil {
			continue
		}
		_ = name // toolset-specific validation happens in toolset factories
	}
	if s := fm.Sandbox; s != nil {
		for i, z := range s.Zones {
			if z.Mode != "ro" && z.Mode != "rw" {
				issues = append(issues, Issue{Path: fmt.Sprintf("sandbox.zones[%d].mode", i), Message: "must be \"ro\" or \"rw\""})
			}
			if z.Prefix == "" {
				issues = append(issues, Issue{Path: fmt.Sprintf("sandbox.zones[%d].prefix", i), Message: "must not be empty"})
			}
		}
		for i, m := range s.Mounts {
			if m.Mode != "ro" && m.Mode != "rw" {
				issues = append(issues, Issue{Path: fmt.Sprintf("sandbox.mounts[%d].mode", i), Message: "must be \"ro\" or \"rw\""})
			}
			if m.Path == "" {
				issues = append(issues, Issue{Path: fmt.Sprintf("sandbox.mounts[%d].path", i), Message: "must not be empty"})
			}
		}
		if len(s.Zones) == 0 && len(s.Mounts) == 0 {
			issues = append(issues, Issue{Path: "sandbox", Message: "must declare at least one zone or mount"})
		}
	}
	return issues
}

// validateComposite re-checks cross-field constraints once the body has been
// merged in, catching issues that only make sense on the full definition
// (e.g. a non-empty instructions body).
func validateComposite(def *worker.WorkerDefinition) []Issue {
	var issues []Issue
	if strings.TrimSpace(def.Instructions) == "" {
		issues = append(issues, Issue{Path: "instructions", Message: "worker body must not be empty"})
	}
	return issues
}
