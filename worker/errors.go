package worker

import "fmt"

type (
	// InvalidConfigError reports a configuration error detected at
	// construction time (negative depth, interactive approval mode without a
	// callback, an empty compatible_models list, and similar).
	InvalidConfigError struct {
		Reason string
	}

	// AttachmentPolicyViolationError is returned when Run's attachments fail
	// the worker's AttachmentPolicy. It is checked before any model call.
	AttachmentPolicyViolationError struct {
		Reason string
	}

	// ModelIncompatibleError reports that a resolved "provider:model" id does
	// not satisfy a worker's compatible_models allow-list.
	ModelIncompatibleError struct {
		Model            string
		CompatibleModels []string
	}

	// IterationLimitExceededError is returned when a run reaches its maximum
	// iteration count without the model returning a final response. Partial
	// totals are attached by the caller (see runtime.RunResult).
	IterationLimitExceededError struct {
		MaxIterations int
	}
)

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Reason)
}

func (e *AttachmentPolicyViolationError) Error() string {
	return fmt.Sprintf("attachment policy violation: %s", e.Reason)
}

func (e *ModelIncompatibleError) Error() string {
	return fmt.Sprintf("model %q is not compatible with patterns %v", e.Model, e.CompatibleModels)
}

func (e *IterationLimitExceededError) Error() string {
	return fmt.Sprintf("maximum iterations exceeded (%d)", e.MaxIterations)
}
