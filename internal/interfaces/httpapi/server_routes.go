package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/editions", handler.ListEditions)
	mux.HandleFunc("GET /v1/editions/champions", handler.ListChampions)
	mux.HandleFunc("GET /v1/rankings", handler.ListRankings)
	mux.HandleFunc("GET /v1/rankings/{kind}", handler.GetRanking)
	mux.HandleFunc("GET /v1/events", handler.Events)
}

func registerUserRoutes(mux *http.ServeMux, handler *Handler) {
	routes := map[string]http.HandlerFunc{
		"PUT /v1/matches/{matchID}/prediction": handler.SubmitPrediction,
		"GET /v1/matches/{matchID}/prediction": handler.GetPrediction,
		"GET /v1/me/predictions":               handler.ListMyPredictions,
		"GET /v1/me/stats":                     handler.GetMyStats,
	}
	for pattern, h := range routes {
		mux.Handle(pattern, requireUser(h))
	}
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, guard middleware) {
	routes := map[string]http.HandlerFunc{
		"POST /v1/internal/sync":            handler.TriggerSync,
		"POST /v1/internal/sync/run":        handler.RunSync,
		"GET /v1/internal/sync/status":      handler.GetSyncStatus,
		"POST /v1/internal/editions/finish": handler.FinishEdition,
	}
	for pattern, h := range routes {
		mux.Handle(pattern, guard(h))
	}
}
