package httpapi

import (
	"net/http"

	"github.com/riskibarqy/prode/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	swaggerEnabled bool,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("http")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, swaggerEnabled)
	registerPublicDomainRoutes(mux, handler)
	registerUserRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, requireJobToken(internalJobToken))

	return chain(mux,
		requestTracing,
		requestLogging(logger),
		corsPolicy(corsAllowedOrigins),
		recoverPanic(logger),
	)
}
