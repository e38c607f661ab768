package toolsets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
	"github.com/zby/golem-forge-sub002/worker/toolsets"
)

func newSandbox(t *testing.T) *sandbox.Sandbox {
	t.Helper()
	sb, err := sandbox.New(&worker.SandboxSpec{
		Root:  t.TempDir(),
		Zones: []worker.ZoneSpec{{Name: "workspace", Prefix: "/", Mode: "rw"}},
	})
	require.NoError(t, err)
	return sb
}

func findTool(t *testing.T, toolList []string, want string) bool {
	for _, n := range toolList {
		if n == want {
			return true
		}
	}
	return false
}

func TestFilesystemToolsetRegistersExpectedTools(t *testing.T) {
	toolList, err := toolsets.NewFilesystemToolset(newSandbox(t), nil)
	require.NoError(t, err)
	names := make([]string, len(toolList))
	for i, tool := range toolList {
		names[i] = tool.Name
	}
	for _, want := range []string{"read_file", "write_file", "list_files", "delete_file", "stat_file"} {
		assert.True(t, findTool(t, names, want), "expected %s to be registered", want)
	}
}

func TestFilesystemToolsetRejectsNilSandbox(t *testing.T) {
	_, err := toolsets.NewFilesystemToolset(nil, nil)
	require.Error(t, err)
}

func TestWriteFileThenReadFileRoundTrip(t *testing.T) {
	toolList, err := toolsets.NewFilesystemToolset(newSandbox(t), nil)
	require.NoError(t, err)

	var write, read func(context.Context, map[string]any) (worker.ToolResultValue, error)
	for _, tool := range toolList {
		switch tool.Name {
		case "write_file":
			write = tool.Execute
		case "read_file":
			read = tool.Execute
		}
	}
	require.NotNil(t, write)
	require.NotNil(t, read)

	_, err = write(context.Background(), map[string]any{"path": "/a.txt", "content": "hello"})
	require.NoError(t, err)

	result, err := read(context.Background(), map[string]any{"path": "/a.txt"})
	require.NoError(t, err)
	fc, ok := result.(worker.FileContentResult)
	require.True(t, ok)
	assert.Equal(t, "hello", fc.Content)
}
