package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/prode/internal/usecase"
)

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "SubmitPrediction")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitPredictionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if _, err := h.predictionService.Submit(ctx, usecase.SubmitPredictionInput{
		UserID:          userID,
		MatchExternalID: matchID,
		GoalsClub:       *req.GoalsClub,
		GoalsOpponent:   *req.GoalsOpponent,
	}); err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed", "user_id", userID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	scored, err := h.predictionService.Get(ctx, userID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "reload prediction failed", "user_id", userID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, scoredPredictionToDTO(scored, false))
}

func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetPrediction")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	scored, err := h.predictionService.Get(ctx, userID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get prediction failed", "user_id", userID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoredPredictionToDTO(scored, true))
}

func (h *Handler) ListMyPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListMyPredictions")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.ListByUser(ctx, userID, filter.rankingFilter())
	if err != nil {
		h.logger.WarnContext(ctx, "list predictions failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, scoredPredictionToDTO(item, true))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetMyStats")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.predictionService.Stats(ctx, userID, filter.rankingFilter())
	if err != nil {
		h.logger.WarnContext(ctx, "get prediction stats failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, stats)
}
