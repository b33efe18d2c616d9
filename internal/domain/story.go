package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode はストーリー生成のモードを表します。
type Mode string

const (
	ModeNews    Mode = "news"
	ModeCurious Mode = "curious"
)

// ParseMode は文字列からモードを解決します。不明な値は ModeCurious にフォールバックします。
func ParseMode(s string) Mode {
	if s == string(ModeNews) {
		return ModeNews
	}
	return ModeCurious
}

// ImageSource は画像の取得元を指定します。空文字はモード既定の挙動を意味します。
type ImageSource string

const (
	ImageSourceAI     ImageSource = "ai"
	ImageSourcePexels ImageSource = "pexels"
	ImageSourceCustom ImageSource = "custom"
)

// IntakePayload は正規化済みのストーリー生成リクエストです。構築後は不変として扱います。
type IntakePayload struct {
	TextPrompt     string
	Notes          string
	URLs           []string
	Attachments    []string
	PromptKeywords []string
	Mode           Mode
	TemplateKey    string
	SlideCount     int
	Category       string
	ImageSource    ImageSource
	VoiceEngine    string
}

// LanguageMetadata は検出されたコンテンツ言語を保持します。リクエストごとに一度だけ生成されます。
type LanguageMetadata struct {
	LanguageCode      string  // ISO 639-1 (地域タグ付きの場合あり 例: "hi-IN")
	Confidence        float64 // [0,1]
	SourceTextPreview string  // 検出に使ったテキストの先頭部分
}

// BaseLanguage は地域タグを除いた言語コードを返します ("hi-IN" → "hi")。
func (m LanguageMetadata) BaseLanguage() string {
	for i := 0; i < len(m.LanguageCode); i++ {
		if m.LanguageCode[i] == '-' {
			return m.LanguageCode[:i]
		}
	}
	return m.LanguageCode
}

// SlideBlock はスライド1枚分のナレーションテキストです。
type SlideBlock struct {
	PlaceholderID string
	Text          string
	ImageURL      string // 任意。プロバイダが事前に割り当てた場合のみ
	AltText       string // 画像生成用プロンプト。常に英語
}

// SlideDeck は生成されたスライドの順序付きリストです。
// slides[0] がカバー。News/Curious の CTA スライドはレンダラーが付与するためここには含まれません。
type SlideDeck struct {
	TemplateKey  string
	LanguageCode string
	Slides       []SlideBlock
}

// ImageAsset は保存済み画像1件のメタデータです。
// インデックスは SlideDeck.Slides と位置対応します (assets[i] ↔ slides[i])。
// 生成や保存に失敗したスライドの位置には、PlaceholderID だけを持つ空アセットを置きます。
type ImageAsset struct {
	PlaceholderID     string // 対応するスライドの SlideBlock.PlaceholderID
	Source            string
	OriginalObjectKey string
	ResizedVariants   []string
	Description       string
}

// Empty は保存済みオブジェクトを指していない空アセットか判定します。
// レンダラーは空アセットを既定画像で置き換えます。
func (a ImageAsset) Empty() bool {
	return a.OriginalObjectKey == "" && len(a.ResizedVariants) == 0
}

// VoiceAsset はスライド1枚分のナレーション音声です。
// 合成に失敗したスライドにもプレースホルダーを置き、インデックスのずれを防ぎます。
type VoiceAsset struct {
	Provider        string
	VoiceID         string
	AudioURL        string
	DurationSeconds float64
	Placeholder     bool
}

// NarrativeResponse はナラティブ生成器の出力です。
type NarrativeResponse struct {
	Mode           Mode
	SlideDeck      SlideDeck
	RawOutput      string
	Headlines      []string
	ReasoningTrace string
}

// StoryRecord は生成完了したストーリーの最終集約です。
// オーケストレーターが一度だけ生成し、以降は不変として扱います。
type StoryRecord struct {
	ID            uuid.UUID
	Mode          Mode
	Category      string
	InputLanguage string
	SlideCount    int
	TemplateKey   string
	DocInsights   *DocInsights
	SlideDeck     SlideDeck
	NarrativeRaw  string // LLMの生出力。デバッグと監査のために保存します
	ImageAssets   []ImageAsset
	VoiceAssets   []VoiceAsset
	PromptNews    string
	PromptCurious string
	CanURL        string // 拡張子なしの正規URL
	CanURL1       string // 静的ホスティング用 .html 付き
	CreatedAt     time.Time
}
