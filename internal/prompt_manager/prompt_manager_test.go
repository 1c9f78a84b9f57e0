package prompt_manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager/mocks"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

var testData = Data{
	Persona:    "eXIQ",
	Consultant: "Patrick Burke",
	MaxTokens:  500,
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", storage_manager.ErrNotFound, path)
}

func TestDefault(t *testing.T) {
	m := Default()

	persona, err := m.Persona(testData)
	require.NoError(t, err)
	assert.Contains(t, persona, "You are eXIQ, a thoughtful AI assistant")

	guidelines, err := m.Guidelines(testData)
	require.NoError(t, err)
	assert.Contains(t, guidelines, "Guidelines:\n")
	assert.Contains(t, guidelines, "put the user in touch with Patrick Burke who can help further")
	assert.Contains(t, guidelines, "about what Patrick has done in the past")
	assert.Contains(t, guidelines, "- Keep responses concise (under 500 tokens)")
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("nil provider uses defaults", func(t *testing.T) {
		m, err := Load(ctx, nil, newTestLogger())
		require.NoError(t, err)
		persona, err := m.Persona(testData)
		require.NoError(t, err)
		assert.Contains(t, persona, "You are eXIQ")
	})

	t.Run("missing overrides fall back to defaults", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().Read(mock.Anything, PersonaPath).Return(nil, notFound(PersonaPath))
		provider.EXPECT().Read(mock.Anything, GuidelinesPath).Return(nil, notFound(GuidelinesPath))

		m, err := Load(ctx, provider, newTestLogger())
		require.NoError(t, err)
		guidelines, err := m.Guidelines(testData)
		require.NoError(t, err)
		assert.Contains(t, guidelines, "under 500 tokens")
	})

	t.Run("overrides are rendered with the data", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().Read(mock.Anything, PersonaPath).Return([]byte("You are {{.Persona}} from {{.Company}}.\n"), nil)
		provider.EXPECT().Read(mock.Anything, GuidelinesPath).Return([]byte("Stay under {{.MaxTokens}} tokens and mention {{.ConsultantFirstName}}."), nil)

		m, err := Load(ctx, provider, newTestLogger())
		require.NoError(t, err)

		d := testData
		d.Company = "FTCG Consulting"
		persona, err := m.Persona(d)
		require.NoError(t, err)
		assert.Equal(t, "You are eXIQ from FTCG Consulting.", persona)

		guidelines, err := m.Guidelines(d)
		require.NoError(t, err)
		assert.Equal(t, "Stay under 500 tokens and mention Patrick.", guidelines)
	})

	t.Run("read errors are returned", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().Read(mock.Anything, PersonaPath).Return(nil, errors.New("access denied"))

		_, err := Load(ctx, provider, newTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read prompt")
	})

	t.Run("invalid templates are rejected", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().Read(mock.Anything, PersonaPath).Return([]byte("You are {{.Persona"), nil)

		_, err := Load(ctx, provider, newTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse prompt")
	})

	t.Run("local provider overrides", func(t *testing.T) {
		m, err := Load(ctx, storage_manager.NewLocalFileProvider(t.TempDir()), newTestLogger())
		require.NoError(t, err)
		persona, err := m.Persona(testData)
		require.NoError(t, err)
		assert.Contains(t, persona, "You are eXIQ")
	})
}

func TestData_ConsultantFirstName(t *testing.T) {
	assert.Equal(t, "Patrick", Data{Consultant: "Patrick Burke"}.ConsultantFirstName())
	assert.Equal(t, "", Data{}.ConsultantFirstName())
}
