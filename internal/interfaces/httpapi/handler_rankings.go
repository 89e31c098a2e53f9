package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/usecase"
)

func (h *Handler) ListRankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListRankings")
	defer span.End()

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	boards, err := h.rankingService.Boards(ctx, filter.rankingFilter())
	if err != nil {
		h.logger.WarnContext(ctx, "list rankings failed", "tournament", filter.Tournament, "year", filter.Year, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]rankingBoardDTO, 0, len(boards))
	for _, board := range boards {
		out = append(out, boardToDTO(board))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetRanking")
	defer span.End()

	kind, ok := ranking.ParseKind(r.PathValue("kind"))
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: ranking %q", usecase.ErrNotFound, r.PathValue("kind")))
		return
	}

	filter, err := h.parseEditionFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.rankingService.Board(ctx, kind, filter.rankingFilter())
	if err != nil {
		h.logger.WarnContext(ctx, "get ranking failed", "kind", kind, "tournament", filter.Tournament, "year", filter.Year, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, boardToDTO(board))
}
