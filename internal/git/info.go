package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
)

// DefaultShortHashLength matches `git rev-parse --short` for small repositories.
const DefaultShortHashLength = 7

// DetachedBranchName is reported for a detached HEAD, as `git rev-parse --abbrev-ref HEAD` does.
const DetachedBranchName = "HEAD"

// Info is the source-control state of a directory.
type Info struct {
	Branch      string
	ShortHash   string
	CommitCount int
}

// Complete reports whether all three provenance fields are known.
func (i *Info) Complete() bool {
	return i != nil && i.Branch != "" && i.ShortHash != "" && i.CommitCount > 0
}

// CommitNumber renders CommitCount, or "" when unknown.
func (i *Info) CommitNumber() string {
	if i == nil || i.CommitCount <= 0 {
		return ""
	}
	return strconv.Itoa(i.CommitCount)
}

// Inspector reads repository state with go-git; it never shells out to git.
type Inspector struct {
	shortLen int
}

// NewInspector creates an Inspector with the default short hash length.
func NewInspector() *Inspector {
	return &Inspector{shortLen: DefaultShortHashLength}
}

// Inspect returns the repository state for dir, searching parent directories
// for the repository root. It returns (nil, nil) when dir is not inside a
// repository or the repository has no commits yet.
func (in *Inspector) Inspect(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Debug("No git repository found", logfields.Path(dir))
			return nil, nil
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Debug("Repository has no commits", logfields.Path(dir))
			return nil, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	count, err := countCommits(repo, ref.Hash())
	if err != nil {
		return nil, err
	}

	info := &Info{
		Branch:      DetachedBranchName,
		ShortHash:   in.abbreviate(ref.Hash()),
		CommitCount: count,
	}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, nil
}

func (in *Inspector) abbreviate(h plumbing.Hash) string {
	s := h.String()
	if in.shortLen < len(s) {
		return s[:in.shortLen]
	}
	return s
}

// countCommits counts every commit reachable from head, like `git rev-list --count`.
func countCommits(repo *git.Repository, head plumbing.Hash) (int, error) {
	iter, err := repo.Log(&git.LogOptions{From: head})
	if err != nil {
		return 0, fmt.Errorf("walk commit log: %w", err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return count, nil
}
