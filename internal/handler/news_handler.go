package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/locallens/internal/model"
)

// NewsProviderInterface はニュースハンドラーが必要とするプロバイダインターフェース。
type NewsProviderInterface interface {
	// Search は都市名で最近のニュース記事を検索する。
	Search(ctx context.Context, city string) ([]model.NewsArticle, error)
}

// NewsHandler はニュース検索APIのHTTPハンドラー。
type NewsHandler struct {
	provider NewsProviderInterface
	logger   *slog.Logger
	metrics  UpstreamMetrics // nilの場合は記録しない
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(provider NewsProviderInterface, logger *slog.Logger, metrics UpstreamMetrics) *NewsHandler {
	return &NewsHandler{
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// newsResponse はニュース検索のAPIレスポンス。
type newsResponse struct {
	Articles []model.NewsArticle `json:"articles"`
}

// SearchNews は都市名によるニュース検索を処理する。
// GET /api/news?city=
func (h *NewsHandler) SearchNews(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("cityを指定してください"))
		return
	}

	start := time.Now()
	articles, err := h.provider.Search(r.Context(), city)
	if h.metrics != nil {
		h.metrics.RecordUpstreamLatency("news", time.Since(start))
		if err != nil {
			h.metrics.RecordUpstreamFailure("news")
		} else {
			h.metrics.RecordUpstreamSuccess("news")
		}
	}
	if err != nil {
		h.logger.Error("ニュースの取得に失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewNewsFetchFailedError())
		return
	}

	if articles == nil {
		articles = []model.NewsArticle{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newsResponse{Articles: articles})
}
