package httpapi

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/valyala/bytebufferpool"
)

//go:embed openapi.yaml
var openAPISpec []byte

const swaggerUIVersion = "5"

var swaggerPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js"></script>
<script>
window.ui = SwaggerUIBundle({url: {{.SpecURL}}, dom_id: '#swagger-ui', deepLinking: true});
</script>
</body>
</html>`))

type swaggerPageData struct {
	Title   string
	Version string
	SpecURL string
}

func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	_, span := startHandlerSpan(r, "OpenAPI")
	defer span.End()

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(openAPISpec)
}

func (h *Handler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "SwaggerUI")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	data := swaggerPageData{Title: "Prode API Docs", Version: swaggerUIVersion, SpecURL: "/openapi.yaml"}
	if err := swaggerPage.Execute(buf, data); err != nil {
		h.logger.ErrorContext(ctx, "render swagger page", "error", err)
		writeInternalError(ctx, w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.B)
}
