package devserver

import (
	"bytes"
	"fmt"
	"net/http"
)

// clientTag is inserted into every served HTML page.
var clientTag = []byte(`<script src="` + ClientPath + `"></script>`)

// InjectClient inserts the live reload script before the last </body>,
// or appends it when the page has none.
func InjectClient(page []byte) []byte {
	idx := max(bytes.LastIndex(page, []byte("</body>")), bytes.LastIndex(page, []byte("</BODY>")))
	if idx < 0 {
		idx = len(page)
	}
	out := make([]byte, 0, len(page)+len(clientTag))
	out = append(out, page[:idx]...)
	out = append(out, clientTag...)
	return append(out, page[idx:]...)
}

// handleEvents streams reload signals as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.notifier.Subscribe()
	defer cancel()

	_, _ = fmt.Fprint(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.notifier.Done():
			return
		case <-ch:
			_, _ = fmt.Fprint(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func handleClient(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = fmt.Fprint(w, clientScript)
}

const clientScript = `;(function() {
  var es = new EventSource('` + EventsPath + `');
  es.onmessage = function(e) {
    if (e.data === 'reload') {
      window.location.reload();
    }
  };
  es.onerror = function() {
    es.close();
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
`
