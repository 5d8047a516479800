// Package testutil holds fixtures shared by package tests: throwaway git
// repositories and small file trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitGitRepo initializes a repository in a fresh temporary directory and
// returns it with its path. HEAD points at an unborn "master" branch.
func InitGitRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	return repo, dir
}

// CommitFile writes name below dir, stages it and commits, returning the commit hash.
func CommitFile(t *testing.T, repo *git.Repository, dir, name, content string) plumbing.Hash {
	t.Helper()

	WriteTree(t, dir, map[string]string{name: content})
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	hash, err := w.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com"},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

// WriteTree creates files (slash-separated relative path → content) below root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}
