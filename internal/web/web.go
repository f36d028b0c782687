// Package web はブラウザ向けUIを提供する。
// ページ骨格はサーバー側でレンダリングし、位置情報の取得・ニュースの表示・
// 記事の保存といった動的な処理は埋め込み配信するapp.jsが行う。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	g "github.com/maragudk/gomponents"
	c "github.com/maragudk/gomponents/components"
	. "github.com/maragudk/gomponents/html"
)

//go:embed static
var staticFiles embed.FS

const leafletVersion = "1.9.4"

// renderIndexPage はトップページのHTMLを生成する。
func renderIndexPage() ([]byte, error) {
	b := new(bytes.Buffer)
	err := c.HTML5(c.HTML5Props{
		Title:    "LocalLens - あなたの街のニュース",
		Language: "ja",
		Head: []g.Node{
			Meta(g.Attr("name", "viewport"), g.Attr("content", "width=device-width, initial-scale=1")),
			Link(g.Attr("rel", "stylesheet"),
				g.Attr("href", fmt.Sprintf("https://unpkg.com/leaflet@%s/dist/leaflet.css", leafletVersion))),
			Link(g.Attr("rel", "stylesheet"), g.Attr("href", "/static/style.css")),
			Script(g.Attr("src", fmt.Sprintf("https://unpkg.com/leaflet@%s/dist/leaflet.js", leafletVersion))),
		},
		Body: []g.Node{
			Div(g.Attr("class", "container"),
				Header(
					H1(g.Text("LocalLens")),
					P(g.Attr("class", "tagline"), g.Text("現在地周辺のローカルニュース")),
				),
				Div(g.Attr("id", "error-banner"), g.Attr("class", "banner hidden"),
					Span(g.Attr("id", "error-message")),
					Button(g.Attr("id", "error-dismiss"), g.Attr("type", "button"), g.Text("×")),
				),
				Div(g.Attr("class", "controls"),
					Input(g.Attr("id", "search-input"), g.Attr("type", "text"),
						g.Attr("placeholder", "都市名・住所で検索")),
					Button(g.Attr("id", "search-button"), g.Attr("type", "button"), g.Text("検索")),
					Button(g.Attr("id", "saved-toggle"), g.Attr("type", "button"), g.Text("保存した記事を見る")),
				),
				Div(g.Attr("id", "map")),
				Section(g.Attr("id", "news-pane"),
					H2(g.Attr("id", "news-heading"), g.Text("ニュース")),
					Div(g.Attr("id", "news-list"), g.Attr("class", "article-list")),
				),
				Section(g.Attr("id", "saved-pane"), g.Attr("class", "hidden"),
					H2(g.Text("保存した記事")),
					Div(g.Attr("id", "saved-list"), g.Attr("class", "article-list")),
				),
			),
			Script(g.Attr("src", "/static/app.js")),
		},
	}).Render(b)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// NewHandler はトップページと静的ファイルを配信するハンドラーを返す。
// ページは起動時に一度だけレンダリングする。
func NewHandler() (http.Handler, error) {
	page, err := renderIndexPage()
	if err != nil {
		return nil, fmt.Errorf("トップページのレンダリングに失敗しました: %w", err)
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("静的ファイルの初期化に失敗しました: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	return mux, nil
}
