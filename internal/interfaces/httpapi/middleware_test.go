package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/prode/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSPolicy(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "configured origin", allowed: []string{" https://prode.example.com "}, method: http.MethodGet, origin: "https://prode.example.com", wantStatus: http.StatusOK, wantOrigin: "https://prode.example.com"},
		{name: "preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://prode.example.com", wantStatus: http.StatusNoContent, wantOrigin: "*"},
		{name: "unknown origin", allowed: []string{"https://allowed.example.com"}, method: http.MethodGet, origin: "https://other.example.com", wantStatus: http.StatusOK, wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/matches/1/prediction", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rec := httptest.NewRecorder()

			corsPolicy(tt.allowed)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("unexpected allow origin: got=%q want=%q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRequireJobToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		want       int
	}{
		{name: "match", configured: "s3cret", provided: " s3cret ", want: http.StatusOK},
		{name: "mismatch", configured: "s3cret", provided: "nope", want: http.StatusUnauthorized},
		{name: "missing header", configured: "s3cret", want: http.StatusUnauthorized},
		{name: "not configured", configured: "", provided: "anything", want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync", nil)
			if tt.provided != "" {
				req.Header.Set(internalJobTokenHeader, tt.provided)
			}
			rec := httptest.NewRecorder()

			requireJobToken(tt.configured)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireUser_StoresIdentity(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = userIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me/stats", nil)
	req.Header.Set(userIDHeader, " u-42 ")
	rec := httptest.NewRecorder()
	requireUser(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got != "u-42" {
		t.Fatalf("unexpected result: status=%d user=%q", rec.Code, got)
	}
}

func TestRequestLogging_RecordsStatus(t *testing.T) {
	core, logs := observer.New(logging.LevelInfo)
	logger := logging.FromZap(zap.New(core))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	requestLogging(logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rankings", nil))

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("unexpected log count: got=%d want=1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/v1/rankings" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestRecoverPanic(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	recoverPanic(logging.NewNop())(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
}

func TestTraced(t *testing.T) {
	for path, want := range map[string]bool{
		"/healthz":    false,
		" /readyz ":   false,
		"/v1/events":  false,
		"/v1/matches": true,
		"/docs":       true,
	} {
		if got := traced(path); got != want {
			t.Fatalf("traced(%q)=%v want=%v", path, got, want)
		}
	}
}

func TestChain_OrdersOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	chain(okHandler, mark("a"), mark("b"), mark("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("unexpected order: %v", order)
	}
}
