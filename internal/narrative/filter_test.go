package narrative

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectScript(t *testing.T) {
	assert.Equal(t, "latin", detectScript("The quick brown fox"))
	assert.Equal(t, "devanagari", detectScript("यह एक हिंदी वाक्य है"))
	assert.Equal(t, "tamil", detectScript("இது ஒரு தமிழ் வாக்கியம்"))
}

func TestFilterPositiveContent_RemovesNegativeSentences(t *testing.T) {
	text := "The festival drew thousands of happy visitors from nearby towns. " +
		"Local artists displayed colorful murals across the central square. " +
		"A violent attack was reported in a distant city. " +
		"Organizers plan an even bigger celebration for next year."

	filtered := filterPositiveContent(context.Background(), text)

	assert.NotContains(t, filtered, "attack")
	assert.Contains(t, filtered, "festival drew thousands")
	assert.Contains(t, filtered, "bigger celebration")
}

func TestFilterPositiveContent_SafetyValveKeepsOriginal(t *testing.T) {
	// ほぼ全文がネガティブ判定される場合は誤検出とみなし、元のテキストを返す
	text := "The war destroyed the old bridge over the river valley. " +
		"Soldiers attacked the northern outpost before dawn yesterday. " +
		"Dozens were killed during the prolonged bombing campaign."

	filtered := filterPositiveContent(context.Background(), text)

	assert.Equal(t, text, filtered)
}

func TestFilterPositiveContent_ShortTextUntouched(t *testing.T) {
	text := "war is bad"
	assert.Equal(t, text, filterPositiveContent(context.Background(), text))
}

func TestFilterPositiveContent_MixedScriptUsesBothVocabularies(t *testing.T) {
	// デーヴァナーガリー主体のテキストでも英語のネガティブ語彙は併用される
	text := strings.Repeat("यह एक शांतिपूर्ण और सुंदर उत्सव था जिसमें सभी ने भाग लिया। ", 3) +
		"A deadly attack happened nearby. " +
		strings.Repeat("बच्चों ने रंग-बिरंगे गुब्बारे उड़ाए और मिठाइयाँ बाँटी गईं। ", 3)

	filtered := filterPositiveContent(context.Background(), text)

	assert.NotContains(t, filtered, "attack")
	assert.Contains(t, filtered, "शांतिपूर्ण")
}
