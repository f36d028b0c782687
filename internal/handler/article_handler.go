// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/locallens/internal/article"
	"github.com/hitoshi/locallens/internal/model"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// Save は保存記事を1件作成する。
	Save(ctx context.Context, in article.SaveInput) (*model.SavedArticle, error)
	// List は指定ユーザーの保存記事を新しい順で返す。
	List(ctx context.Context, userID string) ([]model.SavedArticle, error)
	// Delete はidとuserIdに一致する保存記事を削除する。
	Delete(ctx context.Context, id, userID string) error
}

// ArticleMetrics は記事操作のメトリクス記録インターフェース。
type ArticleMetrics interface {
	RecordArticleSaved()
	RecordArticleDeleted()
}

// ArticleHandler は保存記事のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
	metrics ArticleMetrics // nilの場合は記録しない
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface, metrics ArticleMetrics) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		metrics: metrics,
	}
}

// saveArticleRequest は記事保存リクエストのボディ。
type saveArticleRequest struct {
	UserID   string             `json:"userId"`
	Title    string             `json:"title"`
	URL      string             `json:"url"`
	Source   string             `json:"source"`
	Location *model.Coordinates `json:"location"`
}

// saveArticleResponse は記事保存のAPIレスポンス。
type saveArticleResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// deleteArticleRequest は記事削除リクエストのボディ。
type deleteArticleRequest struct {
	UserID string `json:"userId"`
	ID     string `json:"id"`
}

// successResponse は削除成功のAPIレスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// SaveArticle は記事の保存を処理する。
// POST /articles
func (h *ArticleHandler) SaveArticle(w http.ResponseWriter, r *http.Request) {
	var req saveArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	saved, err := h.service.Save(r.Context(), article.SaveInput{
		UserID:   req.UserID,
		Title:    req.Title,
		URL:      req.URL,
		Source:   req.Source,
		Location: req.Location,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordArticleSaved()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saveArticleResponse{
		ID:      saved.ID,
		Success: true,
	})
}

// ListArticles は保存記事の一覧取得を処理する。
// GET /articles?userId=
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	articles, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(articles)
}

// DeleteArticle は記事の削除を処理する。
// DELETE /articles
func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	var req deleteArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.Delete(r.Context(), req.ID, req.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordArticleDeleted()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}

// MethodNotAllowed は許可されていないHTTPメソッドへの405応答を処理する。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusMethodNotAllowed,
		model.NewMethodNotAllowedError(r.Method))
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeArticleNotFound, model.ErrCodeLocationNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodeGeocodeFailed, model.ErrCodeNewsFetchFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
