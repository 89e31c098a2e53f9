package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prode/internal/platform/cache"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

const testJobToken = "job-secret"

type blockingSource struct {
	release chan struct{}
	err     error
}

func (s *blockingSource) FetchMatchFeed(ctx context.Context) (usecase.MatchFeed, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return usecase.MatchFeed{}, ctx.Err()
		}
	}
	return usecase.MatchFeed{}, s.err
}

type apiFixture struct {
	router http.Handler
	sync   *usecase.FixtureSyncService
	source *blockingSource
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	matches := memory.NewMatchRepository([]match.Match{
		{
			ExternalID: "m1", Opponent: "Racing Club", Tournament: "Liga Profesional", SeasonYear: 2025,
			KickoffAt: time.Date(2025, 10, 1, 21, 0, 0, 0, time.UTC), Finished: true,
			GoalsClub: match.IntPtr(2), GoalsOpponent: match.IntPtr(1),
		},
		{
			ExternalID: "m2", Opponent: "Independiente", Tournament: "Liga Profesional", SeasonYear: 2026,
			KickoffAt: time.Date(2026, 4, 10, 21, 0, 0, 0, time.UTC),
		},
		{
			ExternalID: "m3", Opponent: "Talleres", Tournament: "Copa Argentina", SeasonYear: 2026,
			KickoffAt: time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), TimeUndefined: true,
		},
		{
			ExternalID: "m4", Opponent: "Huracan", Tournament: "Liga Profesional", SeasonYear: 2026,
			KickoffAt: time.Date(2026, 3, 31, 21, 0, 0, 0, time.UTC),
		},
	})
	predictions := memory.NewPredictionRepository(matches)
	editions := memory.NewTournamentRepository()
	if err := predictions.Upsert(ctx, prediction.Prediction{
		ID: "p1", UserID: "ana", MatchExternalID: "m1", GoalsClub: 2, GoalsOpponent: 1,
		SubmittedAt: time.Date(2025, 9, 30, 21, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed prediction: %v", err)
	}
	for _, key := range []tournament.Key{{Name: "Liga Profesional", Year: 2025}, {Name: "Liga Profesional", Year: 2026}} {
		if _, err := editions.Ensure(ctx, key); err != nil {
			t.Fatalf("seed edition: %v", err)
		}
	}

	logger := logging.NewNop()
	table := scoring.DefaultTable()
	rankings := usecase.NewRankingService(predictions, editions, table, cache.NewStore(time.Minute), logger)
	events := NewEventHub(nil, clock, logger)
	fanout := usecase.NewRefreshFanout(rankings, events)
	tracker := usecase.NewTournamentTracker(editions, rankings, clock, logger)
	source := &blockingSource{}
	syncService := usecase.NewFixtureSyncService(source, matches, tracker, fanout, usecase.FixtureSyncConfig{}, clock, logger)

	handler := NewHandler(
		usecase.NewMatchService(matches),
		usecase.NewPredictionService(matches, predictions, nil, table, fanout, clock, logger),
		rankings,
		tracker,
		syncService,
		fanout,
		events,
		logger,
	)
	return apiFixture{
		router: NewRouter(handler, logger, true, []string{"*"}, testJobToken),
		sync:   syncService,
		source: source,
	}
}

type envelope struct {
	Data  any `json:"data"`
	Error *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (f apiFixture) do(t *testing.T, method, target, body string, headers map[string]string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v body=%s", method, target, err, rec.Body.String())
		}
	}
	return rec.Code, out
}

func user(id string) map[string]string {
	return map[string]string{"X-User-ID": id}
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	out, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", env.Data)
	}
	return out
}

func dataList(t *testing.T, env envelope) []any {
	t.Helper()
	out, ok := env.Data.([]any)
	if !ok {
		t.Fatalf("expected list data, got %T", env.Data)
	}
	return out
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK || dataMap(t, env)["status"] != "ok" {
		t.Fatalf("unexpected healthz: code=%d data=%v", code, env.Data)
	}
}

func TestRouter_ListMatchesByStatus(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/v1/matches?status=upcoming", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=200", code)
	}
	items := dataList(t, env)
	if len(items) != 3 {
		t.Fatalf("unexpected upcoming count: got=%d want=3", len(items))
	}
	for _, raw := range items {
		item := raw.(map[string]any)
		if item["id"] == "m3" {
			if _, ok := item["kickoff_at"]; ok {
				t.Fatalf("time-undefined match must not expose a kickoff time: %v", item)
			}
			if item["kickoff_date"] != "2026-04-20" || item["time_undefined"] != true {
				t.Fatalf("unexpected time-undefined match: %v", item)
			}
		}
	}

	code, _ = f.do(t, http.MethodGet, "/v1/matches?status=postponed", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown status: got=%d want=400", code)
	}
	code, _ = f.do(t, http.MethodGet, "/v1/matches?year=abc", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad year: got=%d want=400", code)
	}
	code, _ = f.do(t, http.MethodGet, "/v1/matches/nope", "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown match: got=%d want=404", code)
	}
}

func TestRouter_SubmitAndReadPrediction(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodPut, "/v1/matches/m2/prediction", `{"goals_club":3,"goals_opponent":0}`, user("beto"))
	if code != http.StatusOK {
		t.Fatalf("submit: got=%d want=200 error=%+v", code, env.Error)
	}
	stored := dataMap(t, env)
	if stored["goals_club"] != float64(3) || stored["scorable"] != false {
		t.Fatalf("unexpected stored prediction: %v", stored)
	}
	if stored["anticipation_hours"] != float64(9*24+9) {
		t.Fatalf("unexpected anticipation: %v", stored["anticipation_hours"])
	}

	code, env = f.do(t, http.MethodGet, "/v1/matches/m1/prediction", "", user("ana"))
	if code != http.StatusOK {
		t.Fatalf("get scored prediction: got=%d want=200", code)
	}
	scored := dataMap(t, env)
	score, _ := scored["score"].(map[string]any)
	if scored["scorable"] != true || score["total"] != float64(9) {
		t.Fatalf("exact prediction must score 9: %v", scored)
	}
}

func TestRouter_PredictionErrors(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		headers map[string]string
		code    int
		reason  string
	}{
		{name: "missing user", method: http.MethodPut, target: "/v1/matches/m2/prediction", body: `{"goals_club":1,"goals_opponent":0}`, code: http.StatusUnauthorized, reason: "unauthorized"},
		{name: "finished match", method: http.MethodPut, target: "/v1/matches/m1/prediction", body: `{"goals_club":1,"goals_opponent":0}`, headers: user("ana"), code: http.StatusConflict, reason: "predictionLocked"},
		{name: "kicked off", method: http.MethodPut, target: "/v1/matches/m4/prediction", body: `{"goals_club":1,"goals_opponent":0}`, headers: user("ana"), code: http.StatusConflict, reason: "predictionLocked"},
		{name: "negative goals", method: http.MethodPut, target: "/v1/matches/m2/prediction", body: `{"goals_club":-1,"goals_opponent":0}`, headers: user("ana"), code: http.StatusBadRequest, reason: "invalidInput"},
		{name: "missing goals", method: http.MethodPut, target: "/v1/matches/m2/prediction", body: `{"goals_club":1}`, headers: user("ana"), code: http.StatusBadRequest, reason: "invalidInput"},
		{name: "unknown field", method: http.MethodPut, target: "/v1/matches/m2/prediction", body: `{"goals_club":1,"goals_opponent":0,"bonus":true}`, headers: user("ana"), code: http.StatusBadRequest, reason: "invalidInput"},
		{name: "unknown match", method: http.MethodPut, target: "/v1/matches/zz/prediction", body: `{"goals_club":1,"goals_opponent":0}`, headers: user("ana"), code: http.StatusNotFound, reason: "notFound"},
		{name: "no prediction yet", method: http.MethodGet, target: "/v1/matches/m2/prediction", headers: user("ana"), code: http.StatusNotFound, reason: "notFound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, tt.method, tt.target, tt.body, tt.headers)
			if code != tt.code {
				t.Fatalf("unexpected status: got=%d want=%d", code, tt.code)
			}
			if env.Error == nil || len(env.Error.Errors) != 1 || env.Error.Errors[0].Reason != tt.reason {
				t.Fatalf("unexpected error body: %+v", env.Error)
			}
		})
	}
}

func TestRouter_TimeUndefinedMatchStaysOpen(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodPut, "/v1/matches/m3/prediction", `{"goals_club":0,"goals_opponent":0}`, user("ana"))
	if code != http.StatusOK {
		t.Fatalf("submit: got=%d want=200 error=%+v", code, env.Error)
	}
	if _, ok := dataMap(t, env)["anticipation_hours"]; ok {
		t.Fatalf("time-undefined kickoff has no anticipation")
	}
}

func TestRouter_MyPredictionsAndStats(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/v1/me/predictions?tournament=Liga%20Profesional&year=2025", "", user("ana"))
	if code != http.StatusOK {
		t.Fatalf("list predictions: got=%d want=200", code)
	}
	items := dataList(t, env)
	if len(items) != 1 {
		t.Fatalf("unexpected predictions: %v", items)
	}
	if _, ok := items[0].(map[string]any)["match"]; !ok {
		t.Fatalf("listed predictions must embed their match")
	}

	code, _ = f.do(t, http.MethodGet, "/v1/me/predictions?tournament=Liga%20Profesional", "", user("ana"))
	if code != http.StatusBadRequest {
		t.Fatalf("edition without year: got=%d want=400", code)
	}

	code, env = f.do(t, http.MethodGet, "/v1/me/stats", "", user("ana"))
	if code != http.StatusOK {
		t.Fatalf("stats: got=%d want=200", code)
	}
	stats := dataMap(t, env)
	if stats["total_points"] != float64(9) || stats["exact_scores"] != float64(1) || stats["average_anticipation_hours"] != float64(24) {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestRouter_Rankings(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/v1/rankings", "", nil)
	if code != http.StatusOK {
		t.Fatalf("rankings: got=%d want=200", code)
	}
	if boards := dataList(t, env); len(boards) != 8 {
		t.Fatalf("unexpected board count: got=%d want=8", len(boards))
	}

	code, env = f.do(t, http.MethodGet, "/v1/rankings/total_points?year=2025", "", nil)
	if code != http.StatusOK {
		t.Fatalf("total points: got=%d want=200", code)
	}
	board := dataMap(t, env)
	rows, _ := board["rows"].([]any)
	if len(rows) != 1 || rows[0].(map[string]any)["user_id"] != "ana" || rows[0].(map[string]any)["value"] != float64(9) {
		t.Fatalf("unexpected board: %v", board)
	}

	code, _ = f.do(t, http.MethodGet, "/v1/rankings/luck", "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown kind: got=%d want=404", code)
	}
	code, _ = f.do(t, http.MethodGet, "/v1/rankings/mufa?tournament=Copa", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("edition without year: got=%d want=400", code)
	}
}

func TestRouter_FinishEditionAwardsChampions(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	job := map[string]string{"X-Internal-Job-Token": testJobToken}

	code, _ := f.do(t, http.MethodPost, "/v1/internal/editions/finish", `{"tournament":"Liga Profesional","year":2025}`, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("missing token: got=%d want=401", code)
	}

	code, env := f.do(t, http.MethodPost, "/v1/internal/editions/finish", `{"tournament":"Liga Profesional","year":2025}`, job)
	if code != http.StatusOK {
		t.Fatalf("finish: got=%d want=200 error=%+v", code, env.Error)
	}
	if result := dataMap(t, env); result["champions"] != float64(1) {
		t.Fatalf("unexpected finish result: %v", result)
	}

	code, env = f.do(t, http.MethodGet, "/v1/editions/champions?year=2025", "", nil)
	if code != http.StatusOK {
		t.Fatalf("champions: got=%d want=200", code)
	}
	champions := dataList(t, env)
	if len(champions) != 1 || champions[0].(map[string]any)["user_id"] != "ana" {
		t.Fatalf("unexpected champions: %v", champions)
	}

	code, env = f.do(t, http.MethodGet, "/v1/rankings/trophies", "", nil)
	if code != http.StatusOK {
		t.Fatalf("trophies: got=%d want=200", code)
	}
	rows, _ := dataMap(t, env)["rows"].([]any)
	if len(rows) != 1 || rows[0].(map[string]any)["value"] != float64(1) {
		t.Fatalf("finishing must refresh the trophies board: %v", rows)
	}

	code, _ = f.do(t, http.MethodPost, "/v1/internal/editions/finish", `{"tournament":"Copa","year":1999}`, job)
	if code != http.StatusNotFound {
		t.Fatalf("unknown edition: got=%d want=404", code)
	}
}

func TestRouter_SyncTriggerRejectsOverlap(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.source.release = make(chan struct{})
	job := map[string]string{"X-Internal-Job-Token": testJobToken}

	code, _ := f.do(t, http.MethodPost, "/v1/internal/sync", "", job)
	if code != http.StatusAccepted {
		t.Fatalf("first trigger: got=%d want=202", code)
	}
	code, env := f.do(t, http.MethodPost, "/v1/internal/sync", "", job)
	if code != http.StatusConflict || env.Error.Errors[0].Reason != "syncInProgress" {
		t.Fatalf("overlapping trigger: got=%d error=%+v", code, env.Error)
	}
	code, _ = f.do(t, http.MethodPost, "/v1/internal/sync/run", "", job)
	if code != http.StatusConflict {
		t.Fatalf("overlapping run: got=%d want=409", code)
	}

	close(f.source.release)
	f.sync.Wait()

	code, env = f.do(t, http.MethodGet, "/v1/internal/sync/status", "", job)
	if code != http.StatusOK {
		t.Fatalf("status: got=%d want=200", code)
	}
	status := dataMap(t, env)
	report, _ := status["last_report"].(map[string]any)
	if status["state"] != "idle" || report["outcome"] != "succeeded" {
		t.Fatalf("unexpected sync status: %v", status)
	}
}

func TestRouter_SyncRunReportsUpstreamFailure(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.source.err = errors.New("connection reset")

	code, env := f.do(t, http.MethodPost, "/v1/internal/sync/run", "", map[string]string{"X-Internal-Job-Token": testJobToken})
	if code != http.StatusBadGateway || env.Error.Errors[0].Reason != "upstreamFailure" {
		t.Fatalf("fetch failure: got=%d error=%+v", code, env.Error)
	}
}

func TestRouter_OpenAPIServed(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/v1/matches/{matchID}/prediction") {
		t.Fatalf("unexpected openapi response: code=%d", rec.Code)
	}
}

func TestRouter_DocsPageRendered(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected docs status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Prode API Docs</title>") || !strings.Contains(body, "swagger-ui-dist@5/swagger-ui-bundle.js") {
		t.Fatalf("unexpected docs page: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}
