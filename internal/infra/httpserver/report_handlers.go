package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/middleware"
)

type submitResponse struct {
	ID        domain.ScanID `json:"id"`
	URL       string        `json:"url"`
	UserID    string        `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
}

type reportResponse struct {
	ID     domain.ScanID   `json:"id"`
	Status domain.Status   `json:"status"`
	URL    string          `json:"url"`
	Report *reports.Report `json:"report"`
}

// POST /report/scan
// Body: {"url": "example.com"}
// Analysis runs in the background; poll GET /report/{id}.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	p, err := principal(req)
	if err != nil {
		return err
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	target, err := middleware.NormalizeURL(body.URL)
	if err != nil {
		return err
	}

	scan, err := r.scans.Submit(req.Context(), target, p.UserID)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusAccepted, submitResponse{
		ID:        scan.ID,
		URL:       scan.URL,
		UserID:    scan.UserID,
		CreatedAt: scan.CreatedAt,
	})
	return nil
}

// GET /report/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	p, err := principal(req)
	if err != nil {
		return err
	}
	list, err := r.scans.History(req.Context(), p.UserID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Scan{}
	}
	middleware.WriteJSON(w, http.StatusOK, list)
	return nil
}

// GET /report/{id}
// report is null until the scan is COMPLETED.
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	p, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	// malformed ids cannot exist, answer like any unknown scan
	if middleware.ValidateScanID(id) != nil {
		return domain.ErrNotFound
	}

	scan, err := r.scans.Get(req.Context(), domain.ScanID(id), p.UserID)
	if err != nil {
		return err
	}
	resp := reportResponse{ID: scan.ID, Status: scan.Status, URL: scan.URL}
	if scan.Status == domain.StatusCompleted {
		resp.Report = scan.Report
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
	return nil
}
