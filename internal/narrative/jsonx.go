package narrative

import (
	"encoding/json"
	"regexp"
)

var (
	fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")
	bareJSONRe   = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseJSONObject はLLM出力からJSONオブジェクトを取り出します。
// 直接パース → コードフェンス内 → 裸の波括弧、の順に試し、すべて失敗したら nil を返します。
// LLMはJSONの前後に説明文やフェンスを付けがちなので、この順の回復が必要です。
func parseJSONObject(raw string) map[string]any {
	var result map[string]any
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		return result
	}

	if match := fencedJSONRe.FindStringSubmatch(raw); match != nil {
		if err := json.Unmarshal([]byte(match[1]), &result); err == nil {
			return result
		}
	}

	if match := bareJSONRe.FindString(raw); match != "" {
		if err := json.Unmarshal([]byte(match), &result); err == nil {
			return result
		}
	}

	return nil
}

// stringField はデコード済みJSONから文字列フィールドを安全に取り出します。
func stringField(object map[string]any, key string) string {
	if object == nil {
		return ""
	}
	if value, ok := object[key].(string); ok {
		return value
	}
	return ""
}
