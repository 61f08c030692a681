package sampler

import (
	"runtime"
	"strings"
)

// Policy decides whether an enumerated OS process counts as a real
// application. Implementations are selected per platform at startup.
// It must be safe for concurrent use.
type Policy interface {
	// Eligible returns true if a process with the given name and
	// executable path should be tracked.
	Eligible(name, executable string) bool
	// Describe returns a human-readable description of the policy.
	Describe() string
}

// BundlePolicy tracks processes whose executable lives inside an
// application bundle, excluding system-provided bundles (macOS).
type BundlePolicy struct{}

func (BundlePolicy) Eligible(_, executable string) bool {
	if executable == "" {
		return false
	}
	return strings.Contains(executable, ".app/") && !strings.Contains(executable, "/System/")
}

func (BundlePolicy) Describe() string { return "macos:app-bundle" }

// ExePolicy tracks processes whose executable ends with the platform
// executable suffix, excluding the OS installation directory (Windows).
// Matching is case-insensitive.
type ExePolicy struct{}

func (ExePolicy) Eligible(_, executable string) bool {
	if executable == "" {
		return false
	}
	lower := strings.ToLower(executable)
	return strings.HasSuffix(lower, ".exe") && !strings.Contains(lower, `\windows\`)
}

func (ExePolicy) Describe() string { return "windows:exe-path" }

// NamePolicy tracks any process with a non-blank name. Used on
// platforms without a reliable bundle or suffix convention.
type NamePolicy struct{}

func (NamePolicy) Eligible(name, _ string) bool {
	return strings.TrimSpace(name) != ""
}

func (NamePolicy) Describe() string { return "generic:name" }

// ForHost returns the eligibility policy for the current platform.
func ForHost() Policy {
	switch runtime.GOOS {
	case "darwin":
		return BundlePolicy{}
	case "windows":
		return ExePolicy{}
	default:
		return NamePolicy{}
	}
}
