// Package observability carries build-scoped log fields on a context and
// emits slog records that include them.
package observability

import (
	"context"
	"log/slog"
)

// Fields identify the build a log record belongs to.
type Fields struct {
	BuildID string
	Profile string
	Stage   string
}

type fieldsKey struct{}

// FieldsFrom returns the fields stored on ctx, or the zero value.
func FieldsFrom(ctx context.Context) Fields {
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

func with(ctx context.Context, set func(*Fields)) context.Context {
	f := FieldsFrom(ctx)
	set(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithBuildID returns a context whose records carry build.id.
func WithBuildID(ctx context.Context, id string) context.Context {
	return with(ctx, func(f *Fields) { f.BuildID = id })
}

// WithProfile returns a context whose records carry the .buildrc profile.
func WithProfile(ctx context.Context, profile string) context.Context {
	return with(ctx, func(f *Fields) { f.Profile = profile })
}

// WithStage returns a context whose records carry the running stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(f *Fields) { f.Stage = stage })
}

// Attrs returns the non-empty fields as slog attributes.
func (f Fields) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 3)
	if f.BuildID != "" {
		attrs = append(attrs, slog.String("build.id", f.BuildID))
	}
	if f.Profile != "" {
		attrs = append(attrs, slog.String("profile", f.Profile))
	}
	if f.Stage != "" {
		attrs = append(attrs, slog.String("stage", f.Stage))
	}
	return attrs
}

func emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	logger := slog.Default()
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.LogAttrs(ctx, level, msg, append(FieldsFrom(ctx).Attrs(), attrs...)...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelDebug, msg, attrs)
}
