package journal

import (
	"strings"

	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

// ExportDateLayout はエクスポートに出力する日付の書式。
const ExportDateLayout = "Jan 2, 2006"

// ExportText は夢日記をプレーンテキストに書き出す。
// エントリは渡された順に並べ、空行で区切る。
func ExportText(entries []Entry) string {
	var b strings.Builder
	b.WriteString("My Dream Journal\n")

	for _, e := range entries {
		if e.Dream == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(e.Dream.CreatedAt.Format(ExportDateLayout))
		b.WriteString("\n")
		b.WriteString("Dream: ")
		b.WriteString(e.Dream.DreamContent)
		b.WriteString("\n")
		b.WriteString("Emotions: ")
		b.WriteString(strings.Join(e.Dream.Emotions, ", "))
		b.WriteString("\n")
		if len(e.Sections) > 0 {
			b.WriteString("Analysis: ")
			b.WriteString(textnorm.PlainText(e.Sections))
			b.WriteString("\n")
		}
	}
	return b.String()
}
