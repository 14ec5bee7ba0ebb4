package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/screens"
)

var formFields = []string{
	screens.FieldDate,
	screens.FieldAmount,
	screens.FieldDescription,
	screens.FieldLocation,
	screens.FieldType,
	screens.FieldCategory,
}

// page is the data handed to every template.
type page struct {
	Title      string
	Back       string
	ShowLogout bool
	Alert      *screens.Alert

	View       *screens.DashboardView
	Detail     *screens.DetailView
	Draft      core.Draft
	Types      []core.TransactionType
	Categories []core.Category
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeInternal).
				WithOperation(applog.OpRender).
				ToSlice()...)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Bad request",
		applog.NewFields().
			WithError(err).
			WithErrorType(applog.ErrorTypeTransfer).
			ToSlice()...)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", page{Title: screens.Title(screens.RouteIndex)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash := screens.NewDashboard(s.backend, applog.FromContext(r.Context()))
	if err := dash.Arrive(r.URL.Query()); err != nil {
		s.badRequest(w, r, err)
		return
	}
	// Load failures are logged by the dashboard; the page still renders.
	_ = dash.Activate(r.Context())

	view := dash.View()
	s.render(w, r, http.StatusOK, "dashboard.html", page{
		Title:      view.Title,
		ShowLogout: true,
		View:       &view,
	})
}

func (s *Server) addPage(form *screens.AddForm, alert *screens.Alert) page {
	return page{
		Title:      form.Title(),
		Back:       screens.NewRoute(screens.RouteDashboard).Path(),
		Alert:      alert,
		Draft:      form.Draft(),
		Types:      form.Types(),
		Categories: form.Categories(),
	}
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	form := screens.NewAddForm(s.backend, nil, nil)
	s.render(w, r, http.StatusOK, "add.html", s.addPage(form, nil))
}

func (s *Server) handleAddSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, r, err)
		return
	}

	alerts := &screens.AlertLog{}
	form := screens.NewAddForm(s.backend, alerts, applog.FromContext(r.Context()))
	for _, name := range formFields {
		_ = form.Set(name, sanitizeInput(r.PostForm.Get(name)))
	}

	route, err := form.Submit(r.Context())
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, screens.ErrSaveFailed) {
			status = http.StatusInternalServerError
		}
		var alert *screens.Alert
		if a, ok := alerts.Last(); ok {
			alert = &a
		}
		s.render(w, r, status, "add.html", s.addPage(form, alert))
		return
	}

	http.Redirect(w, r, route.Path(), http.StatusSeeOther)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := screens.NewDetail(r.URL.Query())
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	view := detail.View()
	s.render(w, r, http.StatusOK, "detail.html", page{
		Title:  view.Title,
		Back:   screens.NewRoute(screens.RouteDashboard).Path(),
		Detail: &view,
	})
}

// handleLogout is reached after the client-side confirmation.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, screens.NewRoute(screens.RouteIndex).Path(), http.StatusSeeOther)
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        string             `json:"total"`
	Count        int                `json:"count"`
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	repo, err := s.backend.Open(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "transactions unavailable"})
		return
	}

	list := repo.Transactions()
	summary := core.ComputeSummary(list)
	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: list,
		Total:        core.FormatAmount(summary.Total),
		Count:        summary.Count,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
