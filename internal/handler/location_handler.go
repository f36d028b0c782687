package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/locallens/internal/model"
)

// GeocodeServiceInterface は位置情報ハンドラーが必要とするサービスインターフェース。
type GeocodeServiceInterface interface {
	// ReverseCity は座標から都市名を解決する。
	ReverseCity(ctx context.Context, lat, lng float64) (string, error)
	// Geocode は住所から座標を検索する。該当なしの場合は(nil, nil)を返す。
	Geocode(ctx context.Context, address string) (*model.GeocodeResult, error)
}

// UpstreamMetrics は上流API呼び出しのメトリクス記録インターフェース。
type UpstreamMetrics interface {
	RecordUpstreamSuccess(upstream string)
	RecordUpstreamFailure(upstream string)
	RecordUpstreamLatency(upstream string, duration time.Duration)
}

// LocationHandler は位置情報APIのHTTPハンドラー。
// APIキーと上流呼び出しをサーバー側に閉じ込めるための中継を提供する。
type LocationHandler struct {
	service GeocodeServiceInterface
	logger  *slog.Logger
	metrics UpstreamMetrics // nilの場合は記録しない
}

// NewLocationHandler はLocationHandlerを生成する。
func NewLocationHandler(service GeocodeServiceInterface, logger *slog.Logger, metrics UpstreamMetrics) *LocationHandler {
	return &LocationHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// reverseCityResponse は逆ジオコーディングのAPIレスポンス。
type reverseCityResponse struct {
	City string `json:"city"`
}

// geocodeResponse は住所検索のAPIレスポンス。
type geocodeResponse struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city"`
}

// ReverseCity は座標から都市名を解決する。
// GET /api/location/reverse?lat=&lng=
func (h *LocationHandler) ReverseCity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("latとlngを数値で指定してください"))
		return
	}

	start := time.Now()
	city, err := h.service.ReverseCity(r.Context(), lat, lng)
	h.recordUpstream("nominatim", start, err)
	if err != nil {
		h.logger.Error("逆ジオコーディングに失敗しました",
			slog.Float64("lat", lat),
			slog.Float64("lng", lng),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewGeocodeFailedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reverseCityResponse{City: city})
}

// Geocode は住所から座標を検索する。
// GET /api/location/geocode?address=
func (h *LocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("addressを指定してください"))
		return
	}

	start := time.Now()
	result, err := h.service.Geocode(r.Context(), address)
	h.recordUpstream("nominatim", start, err)
	if err != nil {
		h.logger.Error("住所検索に失敗しました",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewGeocodeFailedError())
		return
	}
	if result == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewLocationNotFoundError(address))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(geocodeResponse{
		Lat:  result.Lat,
		Lng:  result.Lng,
		City: result.City,
	})
}

// recordUpstream は上流呼び出しの結果とレイテンシをメトリクスに記録する。
func (h *LocationHandler) recordUpstream(upstream string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordUpstreamLatency(upstream, time.Since(start))
	if err != nil {
		h.metrics.RecordUpstreamFailure(upstream)
	} else {
		h.metrics.RecordUpstreamSuccess(upstream)
	}
}
