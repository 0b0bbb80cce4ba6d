package devserver

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const indexFile = "index.html"

// lookup finds urlPath in the first root that has it. Directories resolve
// to their index.html.
func (s *Server) lookup(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	for _, root := range s.roots {
		full := filepath.Join(root, filepath.FromSlash(clean))
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			full = filepath.Join(full, indexFile)
			info, err = os.Stat(full)
			if err != nil {
				continue
			}
		}
		if info.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	file, ok := s.lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if !s.reload || !isHTML(file) {
		http.ServeContent(w, r, file, info.ModTime(), f)
		return
	}

	content, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, file, time.Time{}, bytes.NewReader(InjectClient(content)))
}

func isHTML(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".html" || ext == ".htm"
}
