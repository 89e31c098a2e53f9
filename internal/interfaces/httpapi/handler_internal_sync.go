package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/prode/internal/usecase"
)

// TriggerSync starts a background cycle and answers before it finishes.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "TriggerSync")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	if !h.syncService.Trigger(ctx) {
		writeError(ctx, w, fmt.Errorf("%w: state=%s", usecase.ErrSyncInProgress, h.syncService.State()))
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, syncStatusDTO{State: h.syncService.State().String()})
}

func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunSync")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.syncService.RunOnce(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run fixture sync failed", "outcome", report.Outcome, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetSyncStatus")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	out := syncStatusDTO{State: h.syncService.State().String()}
	if report, ok := h.syncService.LastReport(); ok {
		out.LastReport = &report
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
