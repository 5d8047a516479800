package version

import "testing"

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Default value should be "unknown" until set by build
	if Version != "unknown" {
		t.Logf("Version is: %s (expected 'unknown' or version set via ldflags)", Version)
	}
}

func TestString(t *testing.T) {
	origV, origC, origT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = origV, origC, origT })

	Version, GitCommit, BuildTime = "v1.0.0", "unknown", "unknown"
	if got := String(); got != "v1.0.0" {
		t.Errorf("String() = %q, want v1.0.0", got)
	}

	GitCommit, BuildTime = "abc1234", "2026-01-02"
	if got := String(); got != "v1.0.0 (abc1234, built 2026-01-02)" {
		t.Errorf("String() = %q", got)
	}
}
