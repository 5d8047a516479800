package provenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dirbuilder/internal/git"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		info *git.Info
		want string
	}{
		{
			name: "no repository",
			want: "Build time: 2024-03-09, 02:05:07\n",
		},
		{
			name: "complete git info",
			info: &git.Info{Branch: "main", ShortHash: "a1b2c3d", CommitCount: 42},
			want: "Build time: 2024-03-09, 02:05:07\nGit info: #42 main a1b2c3d\n",
		},
		{
			name: "detached head with long history",
			info: &git.Info{Branch: git.DetachedBranchName, ShortHash: "ffee001", CommitCount: 1024},
			want: "Build time: 2024-03-09, 02:05:07\nGit info: #1024 HEAD ffee001\n",
		},
		{
			name: "partial git info omitted",
			info: &git.Info{Branch: "main", CommitCount: 42},
			want: "Build time: 2024-03-09, 02:05:07\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Capture(stamp, tt.info).Render())
		})
	}
}

func TestCapture_NormalizesToUTC(t *testing.T) {
	local := stamp.In(time.FixedZone("UTC+2", 2*60*60))
	rec := Capture(local, nil)
	require.Equal(t, time.UTC, rec.BuildTime.Location())
	require.True(t, rec.BuildTime.Equal(stamp))
}

func TestWrite_CreatesDestinationAndOverwrites(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "site")

	path, err := Write(dest, Capture(stamp, nil))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, FileName), path)

	info := &git.Info{Branch: "dev", ShortHash: "0000abc", CommitCount: 1}
	_, err = Write(dest, Capture(stamp, info))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Build time: 2024-03-09, 02:05:07\nGit info: #1 dev 0000abc\n", string(data))
}

func TestWrite_DestinationIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := Write(file, Capture(stamp, nil))
	require.Error(t, err)
}
