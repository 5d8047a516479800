// Package config resolves a project's .buildrc into an immutable BuildConfig.
//
// A .buildrc is a JSON document at the root of the source directory. It is
// either a single configuration object:
//
//	{
//	  "cwd": "dist",
//	  "files": ["**/*", "!**/*.map"],
//	  "commands": {"pre": ["npm run build"], "post": ["./smoke-test.sh"]}
//	}
//
// or a mapping of profile name to such an object. Selecting a profile replaces
// the configuration wholesale; top-level keys are never merged into it.
//
// A missing file yields the empty configuration with a warning. A malformed
// file is logged and also degrades to the empty configuration so the build
// can proceed with defaults.
package config
