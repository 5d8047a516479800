// Package provenance writes the .buildinfo file that records when a build
// ran and which commit it was built from.
package provenance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/dirbuilder/internal/git"
)

// FileName is the provenance file created in the destination root.
const FileName = ".buildinfo"

// TimeLayout renders build times as "YYYY-MM-DD, hh:mm:ss" on a 12-hour clock.
const TimeLayout = "2006-01-02, 03:04:05"

// Record is the provenance of one build.
type Record struct {
	BuildTime time.Time
	Git       *git.Info
}

// Capture stamps now (in UTC) and attaches repository info, which may be nil.
func Capture(now time.Time, info *git.Info) Record {
	return Record{BuildTime: now.UTC(), Git: info}
}

// Render returns the file content. The git line is omitted unless all three
// git fields are known.
func (r Record) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build time: %s\n", r.BuildTime.UTC().Format(TimeLayout))
	if r.Git.Complete() {
		fmt.Fprintf(&b, "Git info: #%s %s %s\n", r.Git.CommitNumber(), r.Git.Branch, r.Git.ShortHash)
	}
	return b.String()
}

// Write creates destRoot if needed and overwrites destRoot/.buildinfo.
func Write(destRoot string, rec Record) (string, error) {
	if err := os.MkdirAll(destRoot, 0o750); err != nil {
		return "", fmt.Errorf("create destination %s: %w", destRoot, err)
	}
	path := filepath.Join(destRoot, FileName)
	// #nosec G306 - build provenance is published alongside the artifact
	if err := os.WriteFile(path, []byte(rec.Render()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
