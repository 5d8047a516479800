package errors

// Convenience functions for common error patterns

// Config errors

func MissingSource(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "source directory does not exist").
		WithContext("path", path)
}

func MissingDestination() *BuildError {
	return New(CategoryConfig, SeverityFatal, "please provide a destination").
		WithContext("field", "dest")
}

func UsageError(reason string, cause error) *BuildError {
	return Wrap(cause, CategoryValidation, SeverityFatal, reason)
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

// History errors

func HistoryError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityError, message)
}
