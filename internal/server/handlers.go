package server

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CommandShutdown is the only command the server understands.
const CommandShutdown = "shutdown"

// Query parameters recognised on "/".
const (
	paramCmd    = "cmd"
	paramSelect = "select"
)

// handleRoot handles GET /. A cmd parameter takes precedence over select.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has(paramCmd) {
		s.command(w, query.Get(paramCmd))
		return
	}
	if query.Has(paramSelect) {
		s.selectEntry(w, r, query.Get(paramSelect))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.cfg.Page)
}

// handleSelectPath handles GET /select/{entry}. An empty segment does not
// match and falls through to the static lookup.
func (s *Server) handleSelectPath(w http.ResponseWriter, r *http.Request) {
	entry := pathParam(r, "entry")
	if entry == "" {
		s.handleStatic(w, r)
		return
	}
	s.selectEntry(w, r, entry)
}

// handleCmdPath handles GET /cmd/{command}.
func (s *Server) handleCmdPath(w http.ResponseWriter, r *http.Request) {
	command := pathParam(r, "command")
	if command == "" {
		s.handleStatic(w, r)
		return
	}
	s.command(w, command)
}

// pathParam returns the decoded URL parameter key. chi matches against the
// raw path when the request path had to be escaped, leaving the parameter
// encoded.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// selectEntry reports entry on the output. Outside oneshot mode the browser
// is redirected back to the page. In oneshot mode the first selection
// terminates the server and later ones are ignored.
func (s *Server) selectEntry(w http.ResponseWriter, r *http.Request, entry string) {
	if s.cfg.Oneshot && !s.selected.CompareAndSwap(false, true) {
		s.log.Debug("ignoring selection after oneshot", "entry", entry)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.report(entry); err != nil {
		s.log.Error("failed to report selection", "entry", entry, "error", err)
		if s.cfg.Oneshot {
			// Nothing was reported, so a later selection may still finish the run.
			s.selected.Store(false)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.log.Info("selected", "entry", entry)

	if s.cfg.Oneshot {
		w.WriteHeader(http.StatusNoContent)
		s.terminate("oneshot selection")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// command runs the named command. Unknown commands, and shutdown when it is
// disabled, get an empty 404.
func (s *Server) command(w http.ResponseWriter, name string) {
	if name == CommandShutdown && !s.cfg.NoShutdown {
		s.log.Info("shutdown requested")
		w.WriteHeader(http.StatusNoContent)
		s.terminate("shutdown command")
		return
	}

	s.log.Debug("unknown command", "command", name)
	w.WriteHeader(http.StatusNotFound)
}

// handleStatic serves a file from the static assets. Only GET and HEAD are
// served; anything unresolvable is an empty 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	data, ok := s.readAsset(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// readAsset returns the content of the regular file name in the assets.
func (s *Server) readAsset(name string) ([]byte, bool) {
	if s.cfg.Assets == nil || name == "" || !fs.ValidPath(name) || s.hidden[name] {
		return nil, false
	}

	f, err := s.cfg.Assets.Open(name)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || !stat.Mode().IsRegular() {
		return nil, false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		s.log.Warn("failed to read asset", "path", name, "error", err)
		return nil, false
	}
	return data, true
}
