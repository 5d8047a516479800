package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	dberrors "git.home.luguber.info/inful/dirbuilder/internal/errors"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
)

// FileName is the project configuration file looked up in the source root.
const FileName = ".buildrc"

// BuildConfig is the resolved configuration for a single build invocation.
type BuildConfig struct {
	SourceRoot   string   // absolute, exists on disk
	DestRoot     string   // absolute, never empty
	CopyCwd      string   // absolute base directory for file selectors
	Files        []string // ordered selectors, duplicates allowed
	PreCommands  []string // run in SourceRoot
	PostCommands []string // run in DestRoot
	Profile      string   // selected profile, empty for the flat config
}

// RawConfig mirrors one configuration object of a .buildrc document.
type RawConfig struct {
	Cwd      string      `json:"cwd"`
	Files    Selectors   `json:"files"`
	Commands RawCommands `json:"commands"`
}

// RawCommands holds the pre/post command lists.
type RawCommands struct {
	Pre  []string `json:"pre"`
	Post []string `json:"post"`
}

// Selectors accepts either a single pattern string or a list of patterns.
type Selectors []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Selectors) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*s = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = Selectors{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("files must be a string or a list of strings: %w", err)
	}
	*s = list
	return nil
}

// Resolve builds the BuildConfig for src, dest and an optional profile name.
// It fails with a config-category error when src does not exist or dest is empty.
func Resolve(src, dest, profile string) (*BuildConfig, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, "resolve source path").
			WithContext("path", src)
	}
	if info, statErr := os.Stat(absSrc); statErr != nil || !info.IsDir() {
		return nil, dberrors.MissingSource(absSrc)
	}

	if strings.TrimSpace(dest) == "" {
		return nil, dberrors.MissingDestination()
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, "resolve destination path").
			WithContext("path", dest)
	}

	profile = strings.TrimSpace(profile)
	raw := Load(absSrc, profile)

	cfg := &BuildConfig{
		SourceRoot:   absSrc,
		DestRoot:     absDest,
		CopyCwd:      resolvePath(absSrc, raw.Cwd),
		Files:        nonNil(raw.Files),
		PreCommands:  nonNil(raw.Commands.Pre),
		PostCommands: nonNil(raw.Commands.Post),
		Profile:      profile,
	}

	slog.Debug("Resolved build configuration",
		logfields.Path(cfg.SourceRoot),
		slog.String("dest", cfg.DestRoot),
		slog.String("copy_cwd", cfg.CopyCwd),
		logfields.Profile(cfg.Profile),
		slog.Int("files", len(cfg.Files)),
		slog.Int("pre_commands", len(cfg.PreCommands)),
		slog.Int("post_commands", len(cfg.PostCommands)))

	return cfg, nil
}

// Load reads <sourceRoot>/.buildrc and returns the selected configuration
// object. It never fails: a missing or malformed file yields the empty config.
func Load(sourceRoot, profile string) RawConfig {
	path := filepath.Join(sourceRoot, FileName)
	// #nosec G304 - path is the fixed config file inside the source root
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Missing .buildrc file. Default config is used!", logfields.Path(path))
		} else {
			slog.Error(".buildrc could not be read, default config is used", logfields.Path(path), logfields.Error(err))
		}
		return RawConfig{}
	}

	raw, err := Parse(data, profile)
	if err != nil {
		slog.Error(".buildrc is not a valid JSON file, default config is used", logfields.Path(path), logfields.Error(err))
		return RawConfig{}
	}
	return raw
}

// Parse decodes .buildrc content. A non-empty profile selects that key of the
// top-level object; an absent key yields the empty config without error.
func Parse(data []byte, profile string) (RawConfig, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("decode %s: %w", FileName, err)
	}

	selected := json.RawMessage(data)
	if profile != "" {
		section, ok := doc[profile]
		if !ok || isNull(section) {
			slog.Warn("Profile not found in .buildrc, default config is used", logfields.Profile(profile))
			return RawConfig{}, nil
		}
		selected = section
	}

	var raw RawConfig
	if err := json.Unmarshal(selected, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("decode %s profile %q: %w", FileName, profile, err)
	}
	return raw, nil
}

func isNull(m json.RawMessage) bool {
	return strings.TrimSpace(string(m)) == "null"
}

func resolvePath(base, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(base, rel)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
