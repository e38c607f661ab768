package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker/parse"
)

const validWorker = `---
name: echo
description: Replies ok
model: anthropic:claude-opus-4
toolsets:
  filesystem:
    root: /workspace
---
Reply 'ok' to everything the user says.
`

func TestParseValid(t *testing.T) {
	def, err := parse.Parse([]byte(validWorker))
	require.NoError(t, err)
	assert.Equal(t, "echo", def.Name)
	assert.Equal(t, "anthropic:claude-opus-4", def.Model)
	assert.Equal(t, "Reply 'ok' to everything the user says.", def.Instructions)
	assert.Contains(t, def.Toolsets, "filesystem")
}

func TestParseMissingName(t *testing.T) {
	_, err := parse.Parse([]byte("---\ndescription: no name\n---\nbody\n"))
	require.Error(t, err)
	var invalid *parse.InvalidWorkerDefinitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "name", invalid.Issues[0].Path)
}

func TestParseEmptyCompatibleModels(t *testing.T) {
	_, err := parse.Parse([]byte("---\nname: x\ncompatible_models: []\n---\nbody\n"))
	require.Error(t, err)
}

func TestParseMissingClosingFence(t *testing.T) {
	_, err := parse.Parse([]byte("---\nname: x\nbody without closing fence"))
	require.Error(t, err)
	var bad *parse.InvalidFrontmatterError
	require.ErrorAs(t, err, &bad)
}

func TestParseNoFrontmatter(t *testing.T) {
	_, err := parse.Parse([]byte("Just a body, no frontmatter."))
	require.Error(t, err)
	var invalid *parse.InvalidWorkerDefinitionError
	require.ErrorAs(t, err, &invalid)
}

func TestParseTrimsTrailingWhitespace(t *testing.T) {
	def, err := parse.Parse([]byte("---\nname: x\n---\nhello\n\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello", def.Instructions)
}
