package api

import (
	"net/http"

	"github.com/refinelab/refinery/internal/config"
	"github.com/refinelab/refinery/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	files := newFilesHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.API.MaxUploadSizeBytes(),
	)

	routes.Register(
		mux,
		domain.Processes.Handler().Routes(),
		domain.Runs.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		files.routes(),
	)
}
