package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIndex is the page served for "/".
const DefaultIndex = "syrs_mplus_helper.html"

// StaticHandler serves the single-page app and its assets from a directory.
//
// Dotfiles (.env in particular) are never served.
type StaticHandler struct {
	dir   string
	index string
	files http.Handler
}

// NewStaticHandler creates a [StaticHandler] rooted at dir. An empty index uses [DefaultIndex].
func NewStaticHandler(dir, index string) *StaticHandler {
	if index == "" {
		index = DefaultIndex
	}
	return &StaticHandler{
		dir:   dir,
		index: index,
		files: http.FileServer(http.Dir(dir)),
	}
}

// Routes returns the HTTP routes this handler serves.
func (s *StaticHandler) Routes() []string {
	return []string{"/"}
}

func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowed(http.MethodGet, r.Method) {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if hidden(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	if r.URL.Path == "/" {
		s.serveIndex(w, r)
		return
	}
	s.files.ServeHTTP(w, r)
}

// serveIndex bypasses http.FileServer, which would redirect an index.html request back to "/".
func (s *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(s.index)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, s.index, info.ModTime(), f)
}

func hidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
