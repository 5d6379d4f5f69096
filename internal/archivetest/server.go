// Package archivetest runs a fake snapshot archive over HTTP for tests: the
// fixed {kind}/{YYYY}/{MM}/{DD}/{HH}/ layout, index-style listing pages, and
// per-path status overrides to script failure scenarios.
package archivetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	mu sync.Mutex
	// dirs maps a directory path ("/snapshots/2015/01/04/") to the set of
	// child link names it lists ("03/" or a file name).
	dirs     map[string]map[string]struct{}
	statuses map[string]int
	requests map[string]int

	ts *httptest.Server
}

func New() *Server {
	s := &Server{
		dirs:     make(map[string]map[string]struct{}),
		statuses: make(map[string]int),
		requests: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.countRequests)
	r.Get("/{kind}/", s.serveDir)
	r.Get("/{kind}/{year}/", s.serveDir)
	r.Get("/{kind}/{year}/{month}/", s.serveDir)
	r.Get("/{kind}/{year}/{month}/{day}/", s.serveDir)
	r.Get("/{kind}/{year}/{month}/{day}/{hour}/", s.serveDir)

	s.ts = httptest.NewServer(r)
	return s
}

// URL returns the archive base URL, with trailing slash.
func (s *Server) URL() string {
	return s.ts.URL + "/"
}

func (s *Server) Close() {
	s.ts.Close()
}

// Add registers one snapshot file for ts (UTC) under kind, creating every
// intermediate directory level. The file name follows the archive convention:
// YYYYMMDDHHmmssmmm_<tag>_snap.fits.
func (s *Server) Add(kind string, ts time.Time, tag string) string {
	ts = ts.UTC()
	name := fmt.Sprintf("%s%03d_%s_snap.fits", ts.Format("20060102150405"), ts.Nanosecond()/int(time.Millisecond), tag)

	parts := []string{
		kind,
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d", int(ts.Month())),
		fmt.Sprintf("%02d", ts.Day()),
		fmt.Sprintf("%02d", ts.Hour()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dir := "/"
	for _, p := range parts {
		s.addChild(dir, p+"/")
		dir += p + "/"
	}
	s.addChild(dir, name)
	return name
}

// SetStatus forces every GET of path (with trailing slash) to answer code.
func (s *Server) SetStatus(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = code
}

// Requests returns how many times path was fetched.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// TotalRequests returns how many requests the server saw overall.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

func (s *Server) addChild(dir, child string) {
	if s.dirs[dir] == nil {
		s.dirs[dir] = make(map[string]struct{})
	}
	s.dirs[dir][child] = struct{}{}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveDir(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	s.mu.Lock()
	code, forced := s.statuses[path]
	children, ok := s.dirs[path]
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	s.mu.Unlock()

	if forced {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Tri lexicographique = ordre chronologique avec ce nommage.
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<html><head><title>Index of " + path + "</title></head><body>\n")
	b.WriteString("<h1>Index of " + path + "</h1><hr><pre>\n")
	b.WriteString("<a href=\"../\">../</a>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", name, name)
	}
	b.WriteString("</pre><hr></body></html>\n")

	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}
