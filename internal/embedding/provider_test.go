package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_Mock(t *testing.T) {
	e, err := NewEmbedder(ProviderMock, "", "")
	require.NoError(t, err)
	assert.IsType(t, &MockEmbedder{}, e)
}

func TestNewEmbedder_OpenAI_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbedder(ProviderOpenAI, "", "")
	assert.Error(t, err)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder("not-a-provider", "key", "model")
	assert.Error(t, err)
}
