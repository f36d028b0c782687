// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, article, location, news, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeArticleNotFound  = "ARTICLE_NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeLocationNotFound = "LOCATION_NOT_FOUND"
	ErrCodeGeocodeFailed    = "GEOCODE_FAILED"
	ErrCodeNewsFetchFailed  = "NEWS_FETCH_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewValidationError は必須フィールド不足などの入力エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("リクエストが不正です: %s", detail),
		Category: "validation",
		Action:   "必須フィールドをすべて指定してください。",
	}
}

// NewArticleNotFoundError は保存記事未検出エラーを生成する。
// 削除対象が存在しない場合と、所有者が一致しない場合の両方で返される。
// 所有者不一致を区別して返すと他ユーザーのレコードの存在が露見するため、区別しない。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された保存記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "保存記事の一覧を再読み込みしてください。",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  fmt.Sprintf("このエンドポイントでは %s メソッドは使用できません。", method),
		Category: "validation",
		Action:   "APIドキュメントに記載されたメソッドを使用してください。",
	}
}

// NewLocationNotFoundError は住所検索で該当地点が見つからない場合のエラーを生成する。
func NewLocationNotFoundError(address string) *APIError {
	return &APIError{
		Code:     ErrCodeLocationNotFound,
		Message:  fmt.Sprintf("指定された場所が見つかりませんでした: %s", address),
		Category: "location",
		Action:   "住所や都市名の表記を確認して再度検索してください。",
	}
}

// NewGeocodeFailedError はジオコーディングAPIの呼び出し失敗エラーを生成する。
// 上流の詳細はログにのみ記録し、ユーザーには一般的なメッセージを返す。
func NewGeocodeFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGeocodeFailed,
		Message:  "位置情報の解決に失敗しました。",
		Category: "location",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNewsFetchFailedError はニュースプロバイダの呼び出し失敗エラーを生成する。
// 上流の詳細はログにのみ記録し、ユーザーには一般的なメッセージを返す。
func NewNewsFetchFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeNewsFetchFailed,
		Message:  "ニュースの取得に失敗しました。",
		Category: "news",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// ストア層の障害詳細を呼び出し元へ伝播させないために使用する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
