// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はニュースプロバイダから取得した記事のタイトルと
// 説明文をプレーンテキストに正規化する。このアプリは記事フィールドを
// HTMLとして描画しないため、許可リストではなく全タグ除去のポリシーを使う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は上流記事フィールドのサニタイズ機能のインターフェースを定義する。
type TextSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去し、エンティティをデコードした
	// プレーンテキストを返す。前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのタグと属性を除去する。RSSフォールバックの
// 記事説明文にはリンクタグ等が混入するため、保存・応答前に必ず通すこと。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	// StrictPolicyは&amp;等のエンティティを残すため、表示用にデコードする
	return strings.TrimSpace(html.UnescapeString(stripped))
}
