package project_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studio-service/internal/auth"
	"studio-service/internal/logger"
	"studio-service/internal/models"
	"studio-service/internal/portal"
	"studio-service/internal/project"
	"studio-service/internal/storage"

	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps one multipart upload request.
const maxUploadBytes = 512 << 20 // 512MB

type Handler struct {
	ProjectService *project.ProjectService
	Gate           *portal.Gate
	Logger         *logger.Logger
}

func NewHandler(projectService *project.ProjectService, gate *portal.Gate, log *logger.Logger) *Handler {
	return &Handler{
		ProjectService: projectService,
		Gate:           gate,
		Logger:         log,
	}
}

// --- admin endpoints ---

// CreateProject makes a locked project for an eligible booking.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.ProjectService.Create(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrNotEligible) {
			status = http.StatusConflict
		}
		h.Logger.Error("API", fmt.Sprintf("CreateProject: %v", err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.ProjectService.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProjects: %v", err))
		http.Error(w, "Failed to load projects", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	projectData, err := h.ProjectService.Get(r.Context(), projectID)
	if err != nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projectData)
}

// ToggleLock flips the content lock.
func (h *Handler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	projectData, err := h.ProjectService.ToggleLock(r.Context(), projectID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ToggleLock: %v", err))
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projectData)
}

// UploadFiles accepts a multipart batch for one namespace. Field name "files",
// query/form field "kind" selects preview or full.
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	kind := models.FileKind(r.FormValue("kind"))
	if kind == "" {
		kind = models.FileKind(r.URL.Query().Get("kind"))
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		http.Error(w, "No files in request", http.StatusBadRequest)
		return
	}

	var files []project.UploadFile
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			http.Error(w, "Failed to read uploaded file: "+err.Error(), http.StatusBadRequest)
			return
		}
		opened = append(opened, f)
		files = append(files, project.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	resp, err := h.ProjectService.UploadBatch(r.Context(), projectID, kind, files)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrBadKind) {
			status = http.StatusBadRequest
		} else if errors.Is(err, storage.ErrObjectExists) {
			status = http.StatusConflict
		}
		h.Logger.Error("API", fmt.Sprintf("UploadFiles: %v", err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListFiles lists one namespace of a project for the admin console.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	kind := models.FileKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		http.Error(w, "kind must be preview or full", http.StatusBadRequest)
		return
	}

	objects, err := h.ProjectService.ListFiles(r.Context(), projectID, kind)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListFiles: %v", err))
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(objects)
}

// DeleteProject removes the project row and all stored files.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	if err := h.ProjectService.Delete(r.Context(), projectID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteProject: %v", err))
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- client portal endpoints ---

// PortalView returns the gated view of one project for the caller.
func (h *Handler) PortalView(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	identity, ok := auth.From(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	view, err := h.Gate.View(r.Context(), projectID, identity.UserID, identity.IsAdmin())
	if err != nil {
		if errors.Is(err, portal.ErrForbidden) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("PortalView: %v", err))
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// PortalList returns the caller's project headers.
func (h *Handler) PortalList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.From(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projects, err := h.Gate.ListForClient(r.Context(), identity.UserID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PortalList: %v", err))
		http.Error(w, "Failed to load projects", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projects)
}
