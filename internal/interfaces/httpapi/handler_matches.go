package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/prode/internal/domain/match"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListMatches")
	defer span.End()

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	query := match.Query{
		Status:     match.Status(strings.TrimSpace(r.URL.Query().Get("status"))),
		Tournament: filter.Tournament,
		Year:       filter.Year,
	}
	items, err := h.matchService.List(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "status", query.Status, "tournament", query.Tournament, "year", query.Year, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}
