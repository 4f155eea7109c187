package internal

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"chat-relay/runtime"
)

//go:embed inspect.html
var templatesFS embed.FS

// StatsProvider feeds the dashboard header with live counters.
type StatsProvider func() map[string]any

type PageData struct {
	Sessions []runtime.SessionInfo
	Stats    map[string]any
}

// StartDebugServer exposes the session registry on an HTTP endpoint for
// debugging. Listens on all interfaces so the page is reachable over the
// network.
func StartDebugServer(log *slog.Logger, port int, endpoint string, registry *runtime.Registry, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Sessions: registry.Snapshot(),
			Stats:    make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Error("Failed to render inspect page", "error", err)
		}
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux); err != nil {
			log.Error("Debug server stopped", "error", err)
		}
	}()
}
