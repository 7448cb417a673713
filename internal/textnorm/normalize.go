// Package textnorm はモデル出力のテキストを表示用セクションに整形する。
//
// 生成モデルの出力にはMarkdownの強調記号や番号付きリストの記号が含まれるため、
// それらを除去したうえで2文ずつの段落にまとめ、固定のタイトルを割り当てる。
// 同一入力に対して常に同一出力を返し、副作用を持たない。
package textnorm

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FallbackTitle は段落が2つ未満の場合に使う単一セクションのタイトル。
const FallbackTitle = "Analysis"

// sentencesPerParagraph は1段落にまとめる文の数。
const sentencesPerParagraph = 2

// sectionTitles は先頭から順に段落へ割り当てるタイトル。
var sectionTitles = []string{"Interpretation", "Symbolism", "Reflection"}

// numeralMarker は "1. " 形式の番号付きリスト記号にマッチする。
// "5 ." や "3.Next" のように空白の有無が揺れた形も含む。
// 小数の一部（"2.5" の "5"）は対象外。
// 前後の1文字はキャプチャして置換時に戻す。
var numeralMarker = regexp.MustCompile(`(^|[^\d.])\d+\s*\.\s*(\D)`)

// maxCleanPasses はCleanが変化しなくなるまで繰り返す上限回数。
const maxCleanPasses = 8

// stripPolicy はHTMLタグをすべて除去するポリシー。
// bluemonday.Policyは初期化後の並行利用が安全。
var stripPolicy = bluemonday.StrictPolicy()

// Section は見出し付きの表示用テキストのまとまり。
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Normalize はモデルの生出力を表示用セクションに変換する。
//
// 処理内容:
//   - HTMLタグの除去
//   - ダブルクォート、"**"、"*"、"N. " 形式の番号記号の除去
//   - ピリオドでの文分割（直後が数字のピリオドは "8.5" のような小数として分割しない）
//   - 2文ずつの段落化。最後の段落以外は末尾にピリオドを補う
//
// 段落が2つ未満の場合は整形済みテキスト全体を "Analysis" セクション1つで返す。
// 4段落目以降は "Reflection" セクションの末尾に連結する。
func Normalize(raw string) []Section {
	cleaned := Clean(raw)

	paragraphs := groupSentences(splitSentences(cleaned))
	if len(paragraphs) < 2 {
		return []Section{{Title: FallbackTitle, Content: cleaned}}
	}

	sections := make([]Section, 0, len(sectionTitles))
	for i, p := range paragraphs {
		if i < len(sectionTitles) {
			sections = append(sections, Section{Title: sectionTitles[i], Content: p})
			continue
		}
		last := &sections[len(sections)-1]
		last.Content = last.Content + " " + p
	}
	return sections
}

// Clean はHTMLタグとMarkdown記号を取り除いたテキストを返す。
// エスケープ解除や記号除去で新たなタグや記号が現れることがあるため、
// 結果が変化しなくなるまで繰り返す。
func Clean(raw string) string {
	s := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = numeralMarker.ReplaceAllString(s, "${1}${2}")
	return strings.TrimSpace(s)
}

// PlainText はセクション本文を空白1つで連結したプレーンテキストを返す。
func PlainText(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Content == "" {
			continue
		}
		parts = append(parts, s.Content)
	}
	return strings.Join(parts, " ")
}

// splitSentences はピリオドで文を分割する。
// 直後が数字のピリオドは文境界として扱わない。
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i+1 < len(text) && isDigit(text[i+1]) {
			continue
		}
		sentences = appendSentence(sentences, text[start:i])
		start = i + 1
	}
	return appendSentence(sentences, text[start:])
}

// appendSentence は空白を正規化した文を追加する。空の文は無視する。
func appendSentence(sentences []string, s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return sentences
	}
	return append(sentences, s)
}

// groupSentences は文を2つずつ段落にまとめる。
func groupSentences(sentences []string) []string {
	var paragraphs []string
	for i := 0; i < len(sentences); i += sentencesPerParagraph {
		end := i + sentencesPerParagraph
		if end > len(sentences) {
			end = len(sentences)
		}
		p := strings.Join(sentences[i:end], ". ")
		if end < len(sentences) {
			p += "."
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
