package domain

// StoryTaskPayload は、Cloud Tasks経由でワーカーに渡されるストーリー生成指示を表します。
type StoryTaskPayload struct {
	// StoryID は事前採番されたストーリーIDです。APIレスポンスと生成結果を突き合わせるために使用します。
	StoryID string `json:"story_id"`
	// UserInput はChatGPT形式の統合入力欄のテキストです。URL・本文・ファイル参照が混在し得ます。
	UserInput string `json:"user_input,omitempty"`
	// TextPrompt は明示的に指定された本文プロンプトです。
	TextPrompt string `json:"text_prompt,omitempty"`
	// Notes は補足の指示・文脈です。
	Notes string `json:"notes,omitempty"`
	// URLs は記事抽出の対象URLです。
	URLs []string `json:"urls,omitempty"`
	// Attachments は添付ファイルのURI (http(s)/s3/ローカルパス) です。
	Attachments []string `json:"attachments,omitempty"`
	// PromptKeywords はストーリーの切り口を指定するキーワードです。
	PromptKeywords []string `json:"prompt_keywords,omitempty"`
	// Mode は "news" または "curious" です。
	Mode string `json:"mode"`
	// TemplateKey はHTMLテンプレートの識別子です。
	TemplateKey string `json:"template_key,omitempty"`
	// SlideCount は生成するスライド総数 (カバー・CTA込み) です。
	SlideCount int `json:"slide_count,omitempty"`
	// Category は任意のカテゴリ指定です。
	Category string `json:"category,omitempty"`
	// ImageSource は "ai" / "pexels" / "custom" / 空 (モード既定) です。
	ImageSource string `json:"image_source,omitempty"`
	// VoiceEngine は音声合成プロバイダIDです。
	VoiceEngine string `json:"voice_engine,omitempty"`
}
