// Package dashboard serves saved validation reports over HTTP.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed assets/index.html
var dashboardFS embed.FS

// ReportEntry describes one saved report file.
type ReportEntry struct {
	Name     string    `json:"name"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Server serves the dashboard and the report directory.
type Server struct {
	Port   int
	Dir    string
	server *http.Server
	addr   string
}

// Handler returns the dashboard routes:
//   - /dashboard/ → embedded dashboard HTML
//   - /reports.json → saved reports in Dir, newest first
//   - /metrics → Prometheus metrics of this process
//   - / → files from Dir
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	sub, err := fs.Sub(dashboardFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("embed sub: %w", err)
	}
	mux.Handle("/dashboard/", http.StripPrefix("/dashboard/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("/reports.json", s.serveReports)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.FileServer(http.Dir(s.Dir)))
	return mux, nil
}

// Start listens on 127.0.0.1:Port and serves in the background. Port 0
// picks a free port; Addr reports the bound address.
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.Port, err)
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.server.Serve(ln)
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) serveReports(w http.ResponseWriter, r *http.Request) {
	entries, err := ListReports(s.Dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// ListReports returns the validation reports and summaries saved in dir,
// newest first. A missing dir lists nothing.
func ListReports(dir string) ([]ReportEntry, error) {
	items, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []ReportEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	entries := []ReportEntry{}
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasPrefix(name, "validation_") {
			continue
		}
		format := reportFormat(name)
		if format == "" {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, ReportEntry{
			Name:     name,
			Format:   format,
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		si, sj := reportStamp(entries[i].Name), reportStamp(entries[j].Name)
		if si != sj {
			return si > sj
		}
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

// reportStamp extracts the YYYYMMDD_HHMMSS stamp that follows the
// validation_report_ or validation_summary_ prefix.
func reportStamp(name string) string {
	rest := strings.TrimPrefix(name, "validation_")
	if i := strings.IndexByte(rest, '_'); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func reportFormat(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".yaml"):
		return "yaml"
	case strings.HasSuffix(name, ".txt"):
		return "text"
	}
	return ""
}
