package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONObject(t *testing.T) {
	t.Run("direct json", func(t *testing.T) {
		result := parseJSONObject(`{"storytitle": "Hello"}`)
		require.NotNil(t, result)
		assert.Equal(t, "Hello", result["storytitle"])
	})

	t.Run("fenced json", func(t *testing.T) {
		raw := "Here is the story:\n```json\n{\"storytitle\": \"Fenced\"}\n```\nHope that helps!"
		result := parseJSONObject(raw)
		require.NotNil(t, result)
		assert.Equal(t, "Fenced", result["storytitle"])
	})

	t.Run("bare braces inside prose", func(t *testing.T) {
		raw := `Sure! {"storytitle": "Bare"} is what you asked for.`
		result := parseJSONObject(raw)
		require.NotNil(t, result)
		assert.Equal(t, "Bare", result["storytitle"])
	})

	t.Run("no json at all", func(t *testing.T) {
		assert.Nil(t, parseJSONObject("I am sorry, I cannot do that."))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, parseJSONObject(""))
	})
}

func TestStringField(t *testing.T) {
	object := map[string]any{"title": "x", "count": 3.0}

	assert.Equal(t, "x", stringField(object, "title"))
	assert.Equal(t, "", stringField(object, "count"))
	assert.Equal(t, "", stringField(object, "missing"))
	assert.Equal(t, "", stringField(nil, "title"))
}
