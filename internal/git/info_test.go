package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/dirbuilder/internal/testutil"
)

func TestInspect_BranchHashAndCount(t *testing.T) {
	repo, dir := testutil.InitGitRepo(t)
	testutil.CommitFile(t, repo, dir, "a.txt", "one")
	head := testutil.CommitFile(t, repo, dir, "b.txt", "two")

	info, err := NewInspector().Inspect(dir)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected info for a repository with commits")
	}
	if info.Branch != "master" {
		t.Errorf("Branch = %q, want master", info.Branch)
	}
	if info.ShortHash != head.String()[:7] {
		t.Errorf("ShortHash = %q, want %q", info.ShortHash, head.String()[:7])
	}
	if info.CommitCount != 2 {
		t.Errorf("CommitCount = %d, want 2", info.CommitCount)
	}
	if !info.Complete() {
		t.Error("expected complete info")
	}
	if info.CommitNumber() != "2" {
		t.Errorf("CommitNumber = %q", info.CommitNumber())
	}
}

func TestInspect_FromSubdirectory(t *testing.T) {
	repo, dir := testutil.InitGitRepo(t)
	testutil.CommitFile(t, repo, dir, "a.txt", "one")

	sub := filepath.Join(dir, "nested", "deeper")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	info, err := NewInspector().Inspect(sub)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info == nil || info.CommitCount != 1 {
		t.Fatalf("expected one commit from subdirectory, got %+v", info)
	}
}

func TestInspect_DetachedHead(t *testing.T) {
	repo, dir := testutil.InitGitRepo(t)
	first := testutil.CommitFile(t, repo, dir, "a.txt", "one")
	testutil.CommitFile(t, repo, dir, "b.txt", "two")

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Hash: first}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	info, err := (&Inspector{shortLen: 10}).Inspect(dir)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Branch != DetachedBranchName {
		t.Errorf("Branch = %q, want %q", info.Branch, DetachedBranchName)
	}
	if info.ShortHash != first.String()[:10] {
		t.Errorf("ShortHash = %q", info.ShortHash)
	}
	if info.CommitCount != 1 {
		t.Errorf("CommitCount = %d, want 1", info.CommitCount)
	}
}

func TestInspect_NotARepository(t *testing.T) {
	info, err := NewInspector().Inspect(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error outside a repository, got %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
}

func TestInspect_EmptyRepository(t *testing.T) {
	_, dir := testutil.InitGitRepo(t)
	info, err := NewInspector().Inspect(dir)
	if err != nil {
		t.Fatalf("expected no error for empty repository, got %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
}

func TestInfo_Complete(t *testing.T) {
	var nilInfo *Info
	cases := []struct {
		name string
		info *Info
		want bool
	}{
		{"nil", nilInfo, false},
		{"empty", &Info{}, false},
		{"no branch", &Info{ShortHash: "abc1234", CommitCount: 3}, false},
		{"no hash", &Info{Branch: "main", CommitCount: 3}, false},
		{"no count", &Info{Branch: "main", ShortHash: "abc1234"}, false},
		{"complete", &Info{Branch: "main", ShortHash: "abc1234", CommitCount: 3}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Complete(); got != tc.want {
				t.Errorf("Complete() = %v, want %v", got, tc.want)
			}
		})
	}
}
