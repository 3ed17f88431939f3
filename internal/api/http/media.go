package http

import (
	"errors"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mockprep/internal/storage"
)

// MountMedia serves catalog media under the router's prefix, e.g. /assets/*.
func MountMedia(r chi.Router, ms storage.MediaStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		f, mod, err := ms.Open(key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
				return
			}
			respondError(w, err)
			return
		}
		defer f.Close()
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeContent(w, r, path.Base(key), mod, f)
	})
}
