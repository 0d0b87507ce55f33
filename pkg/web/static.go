package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// SPAServer returns a handler that serves files from an embedded filesystem,
// falling back to index.html for paths without a file extension so that
// client-side routes resolve after a hard refresh.
func SPAServer(fsys embed.FS, subdir, urlPrefix string) http.HandlerFunc {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("failed to create sub-filesystem: " + err.Error())
	}

	server := http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))

	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, urlPrefix)
		rel = strings.TrimPrefix(rel, "/")

		if rel != "" && path.Ext(rel) == "" {
			data, err := fs.ReadFile(sub, "index.html")
			if err != nil {
				http.NotFound(w, r)
				return
			}
			http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(data))
			return
		}

		server.ServeHTTP(w, r)
	}
}

// EmbeddedFile returns a handler that serves a single file from an embedded
// filesystem.
func EmbeddedFile(fsys embed.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fsys.ReadFile(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, path.Base(name), time.Time{}, bytes.NewReader(data))
	}
}
