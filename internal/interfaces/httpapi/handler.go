package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

const maxRequestBodyBytes = 1 << 16

type Handler struct {
	matchService      *usecase.MatchService
	predictionService *usecase.PredictionService
	rankingService    *usecase.RankingService
	tracker           *usecase.TournamentTracker
	syncService       *usecase.FixtureSyncService
	publisher         usecase.RefreshPublisher
	events            *EventHub
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	predictionService *usecase.PredictionService,
	rankingService *usecase.RankingService,
	tracker *usecase.TournamentTracker,
	syncService *usecase.FixtureSyncService,
	publisher usecase.RefreshPublisher,
	events *EventHub,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if publisher == nil {
		publisher = usecase.NewRefreshFanout()
	}
	return &Handler{
		matchService:      matchService,
		predictionService: predictionService,
		rankingService:    rankingService,
		tracker:           tracker,
		syncService:       syncService,
		publisher:         publisher,
		events:            events,
		logger:            logger.Named("http_handler"),
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type editionFilterQuery struct {
	Tournament string `validate:"omitempty,max=120"`
	Year       int    `validate:"gte=0,lte=9999"`
}

// parseEditionFilter reads ?tournament=&year=. A tournament narrows to one
// edition and then needs the year; a bare year selects the whole season.
func (h *Handler) parseEditionFilter(ctx context.Context, r *http.Request) (editionFilterQuery, error) {
	values := r.URL.Query()
	out := editionFilterQuery{Tournament: strings.TrimSpace(values.Get("tournament"))}
	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return editionFilterQuery{}, fmt.Errorf("%w: year must be an integer", usecase.ErrInvalidInput)
		}
		out.Year = year
	}
	if err := h.validateRequest(ctx, out); err != nil {
		return editionFilterQuery{}, err
	}
	return out, nil
}

func (q editionFilterQuery) rankingFilter() ranking.Filter {
	if q.Tournament != "" {
		return ranking.Filter{Edition: tournament.Key{Name: q.Tournament, Year: q.Year}}
	}
	return ranking.Filter{Year: q.Year}
}

func (q editionFilterQuery) championQuery() tournament.ChampionQuery {
	return q.rankingFilter().ChampionQuery()
}
