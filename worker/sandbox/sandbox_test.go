package sandbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
)

func newTestSandbox(t *testing.T) *sandbox.Sandbox {
	t.Helper()
	root := t.TempDir()
	sb, err := sandbox.New(&worker.SandboxSpec{
		Root: root,
		Zones: []worker.ZoneSpec{
			{Name: "workspace", Prefix: "/", Mode: "rw"},
			{Name: "readonly", Prefix: "/ro", Mode: "ro"},
		},
	})
	require.NoError(t, err)
	return sb
}

func TestWriteReadRoundTrip(t *testing.T) {
	sb := newTestSandbox(t)
	require.NoError(t, sb.Write("/a/b/c.txt", []byte("hello")))
	content, err := sb.Read("/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestReadOnlyZoneRejectsWrite(t *testing.T) {
	sb := newTestSandbox(t)
	err := sb.Write("/ro/file.txt", []byte("nope"))
	require.Error(t, err)
	var roErr *sandbox.ReadOnlyError
	require.ErrorAs(t, err, &roErr)
}

func TestDeleteThenExists(t *testing.T) {
	sb := newTestSandbox(t)
	require.NoError(t, sb.Write("/x.txt", []byte("v")))
	ok, err := sb.Exists("/x.txt")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, sb.Delete("/x.txt"))
	ok, err = sb.Exists("/x.txt")
	require.NoError(t, err)
	assert.False(t, ok, "exists must not return true after a successful delete with no intervening write")
}

func TestPathEscapeRejected(t *testing.T) {
	sb := newTestSandbox(t)
	_, err := sb.Read("/../../etc/passwd")
	require.Error(t, err)
}

func TestBinaryExtensionRefused(t *testing.T) {
	sb := newTestSandbox(t)
	require.NoError(t, sb.Write("/image.png", []byte{0x89, 'P', 'N', 'G'}))
	_, err := sb.Read("/image.png")
	require.Error(t, err)
	var binErr *sandbox.BinaryRefusedError
	require.ErrorAs(t, err, &binErr)
}

func TestBinaryContentHeuristicRefused(t *testing.T) {
	sb := newTestSandbox(t)
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i % 256)
	}
	require.NoError(t, sb.Write("/blob.dat", payload))
	_, err := sb.Read("/blob.dat")
	require.Error(t, err)
}

func TestListLexicographic(t *testing.T) {
	sb := newTestSandbox(t)
	require.NoError(t, sb.Write("/dir/b.txt", []byte("b")))
	require.NoError(t, sb.Write("/dir/a.txt", []byte("a")))
	names, err := sb.List("/dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestCheckPermission(t *testing.T) {
	sb := newTestSandbox(t)
	allowed, zone, decision, _ := sb.CheckPermission("write", "/a.txt")
	assert.True(t, allowed)
	assert.Equal(t, "workspace", zone)
	assert.Equal(t, sandbox.PermissionAsk, decision)

	allowed, _, decision, _ = sb.CheckPermission("write", "/ro/a.txt")
	assert.False(t, allowed)
	assert.Equal(t, sandbox.PermissionBlocked, decision)

	allowed, _, decision, _ = sb.CheckPermission("read", "/a.txt")
	assert.True(t, allowed)
	assert.Equal(t, sandbox.PermissionPreApproved, decision)
}
