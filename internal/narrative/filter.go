package narrative

import (
	"context"
	"log/slog"
	"strings"
)

// negativeKeywords は文字体系ごとのネガティブ語彙です。戦争・暴力・事故などを含む文を
// ナレーション生成の前に落とすために使います。
var negativeKeywords = map[string][]string{
	"latin": {
		"war", "wars", "warfare", "battle", "battles", "attack", "attacks", "attacked", "attacking",
		"violence", "violent", "kill", "killed", "killing", "death", "deaths", "dead", "died", "dying",
		"bomb", "bombs", "bombing", "bombed", "explosion", "explosions", "exploded", "terror", "terrorist",
		"terrorism", "shooting", "shot", "gun", "guns", "weapon", "weapons", "murder", "murdered",
		"assassination", "assassinated", "riot", "riots", "blood", "bloody",
		"casualties", "casualty", "injured", "injury", "injuries", "wounded", "destruction", "destroyed",
		"destroy", "destroys", "damage", "damaged", "harm", "harmed", "crisis", "crises", "disaster",
		"disasters", "tragedy", "tragedies", "accident", "accidents", "crash", "crashes", "crashed",
		"burning", "burned", "burnt", "hate", "hatred", "hostile", "hostility",
	},
	"devanagari": {
		"युद्ध", "हिंसा", "हत्या", "मृत्यु", "मौत", "आतंक", "आतंकवाद", "हमला", "हमले",
		"नष्ट", "तबाही", "दुर्घटना", "खून", "खूनी", "हताहत", "घायल",
		"विनाश", "नुकसान", "क्षति", "संकट", "आपदा", "त्रासदी",
		"आग", "जलना", "नफरत", "शत्रुता",
	},
	"bengali": {
		"যুদ্ধ", "হিংসা", "হত্যা", "মৃত্যু", "সন্ত্রাস", "সন্ত্রাসবাদ", "আক্রমণ",
		"ধ্বংস", "বিপর্যয়", "দুর্ঘটনা", "রক্ত", "রক্তাক্ত", "হতাহত", "আহত", "ক্ষতি",
	},
	"tamil": {
		"போர்", "வன்முறை", "கொலை", "மரணம்", "பயங்கரவாதம்", "தாக்குதல்", "அழிவு",
		"விபத்து", "இரத்தம்", "காயம்", "சேதம்", "நெருக்கடி",
	},
	"telugu": {
		"యుద్ధం", "హింస", "హత్య", "మరణం", "భయోత్పాతం", "దాడి", "వినాశనం",
		"ప్రమాదం", "రక్తం", "గాయం", "నష్టం", "సంక్షోభం",
	},
	"gujarati": {
		"યુદ્ધ", "હિંસા", "હત્યા", "મૃત્યુ", "આતંક", "આતંકવાદ", "હુમલો",
		"નાશ", "તબાહી", "દુર્ઘટના", "રક્ત", "ઘાયલ", "નુકસાન",
	},
	"kannada": {
		"ಯುದ್ಧ", "ಹಿಂಸೆ", "ಕೊಲೆ", "ಮರಣ", "ಭಯೋತ್ಪಾದನೆ", "ದಾಳಿ", "ವಿನಾಶ",
		"ಅಪಘಾತ", "ರಕ್ತ", "ಗಾಯ", "ನಷ್ಟ", "ಸಂಕಷ್ಟ",
	},
	"malayalam": {
		"യുദ്ധം", "ഹിംസ", "കൊല", "മരണം", "ഭീകരത", "ആക്രമണം", "വിനാശം",
		"അപകടം", "രക്തം", "ഗായം", "നഷ്ടം", "സംക്ഷോഭം",
	},
	"gurmukhi": {
		"ਯੁੱਧ", "ਹਿੰਸਾ", "ਹੱਤਿਆ", "ਮੌਤ", "ਆਤੰਕ", "ਹਮਲਾ", "ਨਾਸ਼",
		"ਤਬਾਹੀ", "ਦੁਰਘਟਨਾ", "ਖੂਨ", "ਘਾਇਲ", "ਨੁਕਸਾਨ",
	},
	"arabic": {
		"جنگ", "تشدد", "قتل", "موت", "دہشت", "دہشت گردی", "حملہ", "تباہی",
		"حادثہ", "خون", "زخمی", "نقصان", "بحران",
	},
}

// detectScript はテキスト中で最も多い文字体系を返します。
func detectScript(text string) string {
	counts := map[string]int{}
	for _, r := range text {
		switch {
		case r <= 0x007F:
			counts["latin"]++
		case r >= 0x0900 && r <= 0x097F:
			counts["devanagari"]++
		case r >= 0x0980 && r <= 0x09FF:
			counts["bengali"]++
		case r >= 0x0A00 && r <= 0x0A7F:
			counts["gurmukhi"]++
		case r >= 0x0A80 && r <= 0x0AFF:
			counts["gujarati"]++
		case r >= 0x0B80 && r <= 0x0BFF:
			counts["tamil"]++
		case r >= 0x0C00 && r <= 0x0C7F:
			counts["telugu"]++
		case r >= 0x0C80 && r <= 0x0CFF:
			counts["kannada"]++
		case r >= 0x0D00 && r <= 0x0D7F:
			counts["malayalam"]++
		case r >= 0x0600 && r <= 0x06FF:
			counts["arabic"]++
		}
	}

	best := "latin"
	bestCount := 0
	for script, count := range counts {
		if count > bestCount {
			best = script
			bestCount = count
		}
	}
	return best
}

// filterPositiveContent はネガティブな文を除去し、ポジティブ・中立な内容だけを残します。
// 文字体系を検出して対応する語彙で判定するため、言語を問わず機能します。
//
// 安全弁: 除去後に元の30%未満しか残らない場合は誤検出の可能性が高いため、
// フィルタを適用せず元のテキストを返します。
func filterPositiveContent(ctx context.Context, text string) string {
	if len(strings.TrimSpace(text)) < 50 {
		return text
	}

	script := detectScript(text)

	// 混在コンテンツが多いので英語の語彙は常に併用します
	keywords := append([]string(nil), negativeKeywords[script]...)
	if script != "latin" {
		keywords = append(keywords, negativeKeywords["latin"]...)
	}

	sentences := newsSentenceSplitRe.Split(text, -1)

	var kept []string
	filteredCount := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len([]rune(sentence)) < 10 {
			continue
		}

		lower := strings.ToLower(sentence)
		negative := false
		for _, keyword := range keywords {
			if len(keyword) <= 2 {
				continue
			}
			if strings.Contains(lower, strings.ToLower(keyword)) {
				negative = true
				break
			}
		}

		if negative {
			filteredCount++
			continue
		}
		kept = append(kept, sentence)
	}

	filtered := strings.Join(kept, ". ")
	ratio := 1.0
	if len(text) > 0 {
		ratio = float64(len(filtered)) / float64(len(text))
	}
	if ratio < 0.3 {
		slog.WarnContext(ctx, "too much content filtered, keeping original",
			"kept_chars", len(filtered), "total_chars", len(text))
		return text
	}

	if filteredCount > 0 {
		slog.InfoContext(ctx, "filtered negative sentences",
			"filtered", filteredCount, "kept_chars", len(filtered), "total_chars", len(text))
	}
	if filtered == "" {
		return text
	}
	return filtered
}
