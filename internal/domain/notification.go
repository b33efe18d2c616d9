package domain

const CategoryNotAvailable = "N/A"

// NotificationRequest は Slack 等の通知コンポーネントで共有されるデータ構造です。
// 生成されたストーリーのメタデータを通知先に伝えるために使用します。
type NotificationRequest struct {
	// SourceURL は、ストーリーの元になった記事のURLまたは入力種別です。
	SourceURL string `json:"source_url"`

	// OutputCategory は、出力先の種別です。(例: "story-output", "error-report")
	OutputCategory string `json:"output_category"`

	// TargetTitle は、生成物のタイトルです。
	TargetTitle string `json:"target_title"`

	// ExecutionMode は、実行されたモードです。(例: "news / test-news-1")
	ExecutionMode string `json:"execution_mode"`
}
