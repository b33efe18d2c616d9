package render

import (
	"fmt"
	"html"
	"strings"
)

// DefaultBackgroundImage はスライド画像が無いときの既定背景です。
const DefaultBackgroundImage = "https://media.suvichaar.org/upload/polaris/polarisslide.png"

// DefaultCoverImage はカバーとCTAスライドの既定画像です。
const DefaultCoverImage = "https://media.suvichaar.org/upload/polaris/polariscover.png"

// SlideParams は中間スライド1枚の生成パラメータです。
type SlideParams struct {
	SlideID            string
	Paragraph          string
	AudioURL           string
	BackgroundImageURL string
}

// SlideGenerator はテンプレートごとのAMPスライド生成器です。
type SlideGenerator interface {
	GenerateSlide(params SlideParams) string
}

type ampNewsSlideGenerator struct {
	footer string
}

func (g ampNewsSlideGenerator) GenerateSlide(params SlideParams) string {
	background := params.BackgroundImageURL
	if background == "" {
		background = DefaultBackgroundImage
	}
	paragraph := html.EscapeString(params.Paragraph)

	return fmt.Sprintf(`
      <amp-story-page id="%[1]s" auto-advance-after="%[1]s-audio">
        <amp-story-grid-layer template="fill">
          <amp-img src="%[2]s"
            width="720" height="1280" layout="responsive">
          </amp-img>
        </amp-story-grid-layer>
        <amp-story-grid-layer template="fill">
          <amp-video autoplay loop layout="fixed" width="1" height="1" poster="" id="%[1]s-audio">
            <source type="audio/mpeg" src="%[3]s">
          </amp-video>
        </amp-story-grid-layer>
        <amp-story-grid-layer template="vertical">
          <div class="centered-container">
            <div class="text1">
              %[4]s
            </div>
           <div class="footer"><p>%[5]s</p></div>
          </div>
        </amp-story-grid-layer>
      </amp-story-page>
`, params.SlideID, background, params.AudioURL, paragraph, g.footer)
}

// テンプレートキーごとのスライド生成器レジストリです。
// test-news-2 は現状 test-news-1 と同じ構造です。
var slideGenerators = map[string]SlideGenerator{
	"test-news-1": ampNewsSlideGenerator{footer: "©SuvichaarAI"},
	"test-news-2": ampNewsSlideGenerator{footer: "©SuvichaarAI"},
}

// GeneratorFor はテンプレートキーに対応するスライド生成器を返します。
// URLやストレージURI形式のキーからはファイル名部分を取り出して照合し、
// 未知のキーは test-news-1 にフォールバックします。
func GeneratorFor(templateKey string) SlideGenerator {
	base := baseTemplateName(templateKey)
	if generator, ok := slideGenerators[base]; ok {
		return generator
	}
	return slideGenerators["test-news-1"]
}

func baseTemplateName(templateKey string) string {
	name := templateKey
	if strings.Contains(name, "/") {
		name = name[strings.LastIndex(name, "/")+1:]
	}
	return strings.TrimSuffix(name, ".html")
}
