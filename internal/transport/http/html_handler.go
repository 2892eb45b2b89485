package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is rendered into the dashboard template
type PageData struct {
	Title       string
	Version     string
	HorizonDays int
	WindowDays  int
	TailRows    int
	MaxUploadMB int64
}

// DashboardHandler serves the single-page dashboard
type DashboardHandler struct {
	tmpl   *template.Template
	data   PageData
	logger *slog.Logger
}

// NewDashboardHandler parses the embedded dashboard template
func NewDashboardHandler(cfg *config.Config, logger *slog.Logger) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &DashboardHandler{
		tmpl: tmpl,
		data: PageData{
			Title:       config.AppDisplayName,
			Version:     contracts.Version,
			HorizonDays: cfg.Forecast.HorizonDays,
			WindowDays:  cfg.Forecast.WindowDays,
			TailRows:    cfg.Forecast.TailRows,
			MaxUploadMB: cfg.Upload.MaxBytes >> 20,
		},
		logger: logger.With(slog.String("handler", "dashboard")),
	}, nil
}

// ServeDashboard handles GET /
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
