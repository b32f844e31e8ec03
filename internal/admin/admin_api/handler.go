package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studio-service/internal/admin"
	"studio-service/internal/auth"
	"studio-service/internal/logger"
	"studio-service/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AdminService *admin.AdminService
	Logger       *logger.Logger
}

func NewHandler(adminService *admin.AdminService, log *logger.Logger) *Handler {
	return &Handler{AdminService: adminService, Logger: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// --- services ---

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var service models.Service
	if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.AdminService.CreateService(r.Context(), service)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateService: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.AdminService.ListServices(r.Context())
	if err != nil {
		http.Error(w, "Failed to load services", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var service models.Service
	if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	service.ID = chi.URLParam(r, "serviceId")

	if err := h.AdminService.UpdateService(r.Context(), service); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateService: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, service)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteService(r.Context(), chi.URLParam(r, "serviceId")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- staff ---

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var member models.Staff
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.AdminService.CreateStaff(r.Context(), member)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.AdminService.ListStaff(r.Context())
	if err != nil {
		http.Error(w, "Failed to load staff", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var member models.Staff
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	member.ID = chi.URLParam(r, "staffId")

	if err := h.AdminService.UpdateStaff(r.Context(), member); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteStaff(r.Context(), chi.URLParam(r, "staffId")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- portfolio ---

func (h *Handler) CreatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	var item models.PortfolioItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.AdminService.CreatePortfolioItem(r.Context(), item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListPortfolio serves both the admin console (all items) and the public site
// (published only, no auth).
func (h *Handler) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	_, isAuthed := auth.From(r.Context())
	items, err := h.AdminService.ListPortfolio(r.Context(), !isAuthed)
	if err != nil {
		http.Error(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) UpdatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	var item models.PortfolioItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	item.ID = chi.URLParam(r, "itemId")

	if err := h.AdminService.UpdatePortfolioItem(r.Context(), item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeletePortfolioItem(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeletePortfolioItem(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- quote requests ---

// SubmitQuote is the public enquiry form.
func (h *Handler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var quote models.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&quote); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.AdminService.SubmitQuote(r.Context(), quote)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitQuote: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.AdminService.ListQuotes(r.Context())
	if err != nil {
		http.Error(w, "Failed to load quote requests", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (h *Handler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.QuoteStatus `json:"status,omitempty"`
		Notes  *string            `json:"admin_notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := h.AdminService.UpdateQuote(r.Context(), chi.URLParam(r, "quoteId"), req.Status, req.Notes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, admin.ErrBadQuoteStatus) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteQuote(r.Context(), chi.URLParam(r, "quoteId")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- blocked dates ---

func (h *Handler) BlockDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   string `json:"date"`
		Reason string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.AdminService.BlockDate(r.Context(), req.Date, req.Reason); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"date": req.Date})
}

func (h *Handler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.AdminService.ListBlockedDates(r.Context())
	if err != nil {
		http.Error(w, "Failed to load blocked dates", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (h *Handler) UnblockDate(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.UnblockDate(r.Context(), chi.URLParam(r, "date")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- users ---

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.From(r.Context())

	var req struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.AdminService.SetUserRole(r.Context(), identity.UserID, chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, admin.ErrSelfDemotion) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.From(r.Context())

	err := h.AdminService.DeleteUser(r.Context(), identity.UserID, chi.URLParam(r, "userId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, admin.ErrSelfDemotion) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- dashboard ---

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.AdminService.Dashboard(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Dashboard: %v", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
