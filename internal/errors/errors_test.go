package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryFileSystem, SeverityFatal, "failed to remove"),
			expected: "filesystem (fatal): failed to remove: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestBuildError_WithContext(t *testing.T) {
	err := New(CategoryCommand, SeverityFatal, "command failed").
		WithContext("stage", "pre").
		WithContext("index", 2)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["stage"] != "pre" {
		t.Errorf("Context[stage] = %v, want pre", err.Context["stage"])
	}
	if err.Context["index"] != 2 {
		t.Errorf("Context[index] = %v, want 2", err.Context["index"])
	}
}

type stageLike struct{ cause error }

func (s *stageLike) Error() string                { return "stage copy: " + s.cause.Error() }
func (s *stageLike) Unwrap() error                { return s.cause }
func (s *stageLike) ErrorCategory() ErrorCategory { return CategoryFileSystem }

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	wrapped := fmt.Errorf("outer: %w", configErr)
	standardErr := fmt.Errorf("standard error")
	categorized := &stageLike{cause: standardErr}

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match git category", configErr, CategoryGit, false},
		{"wrapped config error matches", wrapped, CategoryConfig, true},
		{"categorized foreign error matches", categorized, CategoryFileSystem, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
		{"nil error", nil, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsCategory(test.err, test.category); result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(fmt.Errorf("plain")); got != CategoryInternal {
		t.Errorf("GetCategory(plain) = %v, want internal", got)
	}
	if got := GetCategory(MissingDestination()); got != CategoryConfig {
		t.Errorf("GetCategory(MissingDestination) = %v, want config", got)
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("MissingSource", func(t *testing.T) {
		err := MissingSource("/nope")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/nope" {
			t.Errorf("Context[path] = %v, want /nope", err.Context["path"])
		}
	})

	t.Run("UsageError", func(t *testing.T) {
		cause := fmt.Errorf("unexpected argument")
		err := UsageError("invalid arguments", cause)
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})
}
