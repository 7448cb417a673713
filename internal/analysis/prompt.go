package analysis

import (
	"fmt"
	"strings"
)

// DefaultWordLimit は解析結果の目標語数のデフォルト値。
const DefaultWordLimit = 150

// promptTemplate は解析依頼プロンプトの雛形。
// 語数上限、感情ラベル、夢の本文の順に埋め込む。
const promptTemplate = `Analyze this dream and provide insights about its potential meaning in less than %d words. ` +
	`Structure the analysis through three lenses, in this order: an overall interpretation, ` +
	`the symbolism of key elements, and a personal reflection for the dreamer. ` +
	`Write plain sentences without headings, lists or markdown. ` +
	`Consider these emotions the dreamer felt: %s

Dream: %s`

// BuildPrompt は夢の本文と感情ラベルから解析依頼プロンプトを組み立てる。
// 本文はそのまま埋め込み、感情ラベルは選択順のまま ", " で連結する。
// wordLimitが0以下の場合はDefaultWordLimitを使用する。
func BuildPrompt(dreamText string, emotions []string, wordLimit int) string {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	return fmt.Sprintf(promptTemplate, wordLimit, strings.Join(emotions, ", "), dreamText)
}
