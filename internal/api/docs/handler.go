package docs

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

//go:embed swagger.yaml
var swaggerYAML []byte

const specPath = "/docs/swagger.yaml"

// RegisterRoutes mounts the OpenAPI document of the assistant and a Swagger UI for it
func RegisterRoutes(r chi.Router) {
	r.Route("/docs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs/index.html", http.StatusFound)
		})
		// chi matches the static route before the wildcard
		r.Get("/swagger.yaml", serveSpec)
		r.Get("/*", httpSwagger.Handler(
			httpSwagger.URL(specPath),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		))
	})
}

func serveSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(swaggerYAML)
}
