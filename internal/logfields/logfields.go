package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCommand    = "command"
	KeyDir        = "dir"
	KeyPath       = "path"
	KeyProfile    = "profile"
	KeyExitCode   = "exit_code"
	KeyCount      = "count"
	KeyPattern    = "pattern"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Command(cmd string) slog.Attr     { return slog.String(KeyCommand, cmd) }
func Dir(dir string) slog.Attr         { return slog.String(KeyDir, dir) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Profile(name string) slog.Attr    { return slog.String(KeyProfile, name) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Pattern(pattern string) slog.Attr { return slog.String(KeyPattern, pattern) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
