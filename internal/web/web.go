// Package web はHTMLページのテンプレートと描画を提供する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名。
const (
	PageIndex     = "index"
	PageDashboard = "dashboard"
	PageLogin     = "login"
)

var pageNames = []string{PageIndex, PageDashboard, PageLogin}

// DateLayout は一覧に表示する日付の書式。
const DateLayout = "Jan 2, 2006"

// Page はテンプレートに渡す表示データ。
type Page struct {
	Title     string
	Identity  *session.Identity
	CSRFToken string

	// 解析フォーム
	Emotions []model.Emotion
	Selected map[string]bool
	Dream    string
	Sections []textnorm.Section
	Error    string
	Notice   string

	// 夢日記一覧
	Journal *journal.Journal
}

// SignedIn はログイン中かどうかを返す。
func (p *Page) SignedIn() bool {
	return p.Identity != nil
}

// Renderer は埋め込みテンプレートからページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format(DateLayout) },
	"join":       strings.Join,
}

// NewRenderer は全ページのテンプレートを解析したRendererを生成する。
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render はページを描画してwに書き込む。
// 描画に失敗した場合はwに何も書き込まない。
func (r *Renderer) Render(w io.Writer, name string, page *Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page: %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
