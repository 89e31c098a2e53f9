package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/usecase"
)

func (h *Handler) ListEditions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListEditions")
	defer span.End()

	items, err := h.tracker.ListEditions(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list editions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]editionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, editionToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListChampions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListChampions")
	defer span.End()

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := filter.rankingFilter().Validate(); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	items, err := h.tracker.ListChampions(ctx, filter.championQuery())
	if err != nil {
		h.logger.WarnContext(ctx, "list champions failed", "tournament", filter.Tournament, "year", filter.Year, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]championDTO, 0, len(items))
	for _, item := range items {
		out = append(out, championToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

// FinishEdition closes an edition the sync heuristic has not caught and
// awards its champions.
func (h *Handler) FinishEdition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "FinishEdition")
	defer span.End()

	var req finishEditionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Tournament = strings.TrimSpace(req.Tournament)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	key := tournament.Key{Name: req.Tournament, Year: req.Year}
	result, err := h.tracker.FinishEdition(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "finish edition failed", "edition", key.String(), "error", err)
		writeError(ctx, w, err)
		return
	}

	if len(result.Finished) > 0 {
		flags := usecase.RefreshFlags{Rankings: true, Trophies: true, AdminLists: true}
		if err := h.publisher.PublishRefresh(ctx, flags); err != nil {
			h.logger.WarnContext(ctx, "publish edition refresh failed", "edition", key.String(), "error", err)
		}
		h.logger.InfoContext(ctx, "edition finished manually", "edition", key.String(), "champions", result.Champions)
	}

	out := finishEditionDTO{Finished: make([]editionKeyDTO, 0, len(result.Finished)), Champions: result.Champions}
	for _, finished := range result.Finished {
		out.Finished = append(out.Finished, editionKeyDTO{Tournament: finished.Name, Year: finished.Year})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
