package domain

import "strings"

// StructuredJobRequest は取り込み集約の結果で、ドキュメント解析ステージだけが消費します。
type StructuredJobRequest struct {
	TextInput     string
	URLList       []string
	Attachments   []AttachmentDescriptor
	FocusKeywords []string
}

// AttachmentDescriptor は添付ファイル1件の参照情報です。
type AttachmentDescriptor struct {
	ID        string
	URI       string
	MediaType string
	Metadata  map[string]string
}

// SemanticChunk は抽出されたソーステキストの最小単位です。ナラティブ生成の原子的な入力になります。
type SemanticChunk struct {
	ID       string
	Text     string
	SourceID string
	Metadata map[string]string
}

// Entity は抽出された固有表現です。
type Entity struct {
	Name  string
	Kind  string
	Count int
}

// EntityMap は名前をキーとしたエンティティの集約です。
type EntityMap map[string]Entity

// Merge は別のエンティティ群を取り込み、同名のものは出現回数を合算します。
func (m EntityMap) Merge(entities []Entity) {
	for _, e := range entities {
		if existing, ok := m[e.Name]; ok {
			existing.Count += e.Count
			m[e.Name] = existing
			continue
		}
		m[e.Name] = e
	}
}

// DocInsights はドキュメント解析の可変な集約結果です。
// URL・テキスト・添付の処理を通じて段階的に構築され、解析ステージがさらに書き換えます。
type DocInsights struct {
	SemanticChunks     []SemanticChunk
	Entities           EntityMap
	Summaries          []string
	RecommendedPrompts []string
	Gaps               []string
	ArticleImages      []string
	Metadata           map[string]string
}

// NewDocInsights は空の DocInsights を初期化します。
func NewDocInsights() *DocInsights {
	return &DocInsights{
		Entities: EntityMap{},
		Metadata: map[string]string{},
	}
}

// HasUsableContent は空白以外のテキストを持つチャンクが1つでも存在するか判定します。
func (d *DocInsights) HasUsableContent() bool {
	for _, chunk := range d.SemanticChunks {
		if strings.TrimSpace(chunk.Text) != "" {
			return true
		}
	}
	return false
}
