package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
}

func TestFromBuildInfoFillsUnsetFields(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		GoVersion: "go1.23.4",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	got := fromBuildInfo(Info{Version: "1.2.3", Commit: "none", BuildTime: "unknown"}, bi)
	require.Equal(t, "0123456", got.Commit)
	require.Equal(t, "2026-01-01T12:00:00Z", got.BuildTime)
	require.True(t, got.Modified)
	require.Equal(t, "panel-stopwatch 1.2.3 (commit 0123456-dirty, built 2026-01-01T12:00:00Z, go1.23.4)", got.String())
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}}}

	got := fromBuildInfo(Info{Version: "1.2.3", Commit: "abc1234", BuildTime: "yesterday"}, bi)
	require.Equal(t, "abc1234", got.Commit)
	require.Equal(t, "yesterday", got.BuildTime)
	require.Equal(t, "panel-stopwatch 1.2.3 (commit abc1234, built yesterday)", got.String())
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "panel-stopwatch"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, Full()+"\n", out.String())
}
