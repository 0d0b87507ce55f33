package app

import (
	"embed"
	"net/http"

	"github.com/refinelab/refinery/pkg/module"
	"github.com/refinelab/refinery/pkg/web"
)

//go:embed dist
var distFS embed.FS

// NewModule creates a module that serves the bundled web client at basePath.
func NewModule(basePath string) *module.Module {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", web.SPAServer(distFS, "dist", ""))
	return module.New(basePath, mux)
}
