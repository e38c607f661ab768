package modelcompat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zby/golem-forge-sub002/worker/modelcompat"
)

func TestParse(t *testing.T) {
	id, err := modelcompat.Parse("anthropic:claude-opus-4")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", id.Provider)
	assert.Equal(t, "claude-opus-4", id.Model)

	_, err = modelcompat.Parse("no-colon-here")
	assert.Error(t, err)

	_, err = modelcompat.Parse("unknownprovider:model")
	assert.Error(t, err)
}

func TestMatchReflexiveAndMetacharacters(t *testing.T) {
	assert.True(t, modelcompat.Match("openai:gpt-4.5", "openai:gpt-4.5"))
	assert.False(t, modelcompat.Match("openai:gpt-4x5", "openai:gpt-4.5"))
	assert.True(t, modelcompat.Match("anthropic:claude-opus-4-5", "anthropic:claude-*"))
	assert.False(t, modelcompat.Match("anthropic:claude-opus-4-5", "openai:*"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, modelcompat.Validate("anthropic:claude-opus-4", nil))

	err := modelcompat.Validate("anthropic:claude-opus-4", []string{})
	assert.Error(t, err)

	require.NoError(t, modelcompat.Validate("anthropic:claude-opus-4", []string{"anthropic:*"}))

	err = modelcompat.Validate("openai:gpt-4", []string{"anthropic:*"})
	assert.Error(t, err)
}
