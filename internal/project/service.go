package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"studio-service/internal/logger"
	"studio-service/internal/models"
	"studio-service/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotEligible = errors.New("booking must have a linked client and a paid status before a project can be created")
	ErrBadKind     = errors.New("kind must be preview or full")
)

type DBLayer interface {
	CreateProject(ctx context.Context, project models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	GetProjectByBooking(ctx context.Context, bookingID string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]models.Project, error)
	SetLock(ctx context.Context, id string, locked bool) error
	AddFileCount(ctx context.Context, id string, kind models.FileKind, delta int) error
	DeleteProject(ctx context.Context, id string) error
}

type ObjectStore interface {
	Upload(src io.Reader, key, contentType string) error
	List(prefix string) ([]storage.ObjectInfo, error)
	DeletePrefix(prefix string) error
}

type BookingReader interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
}

// CacheInvalidator drops cached portal listings when content or lock state
// changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, projectID string)
}

type ProjectService struct {
	DB       DBLayer
	Store    ObjectStore
	Bookings BookingReader
	Cache    CacheInvalidator
	Logger   *logger.Logger
}

func NewProjectService(dbLayer DBLayer, store ObjectStore, bookings BookingReader, cache CacheInvalidator, log *logger.Logger) *ProjectService {
	return &ProjectService{DB: dbLayer, Store: store, Bookings: bookings, Cache: cache, Logger: log}
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BookingID   string `json:"booking_id"`
	Status      string `json:"status,omitempty"`
}

// eligibleForProject mirrors the admin panel rule: deliverables can only be
// attached to a paid booking with a portal identity to deliver to.
func eligibleForProject(b *models.Booking) bool {
	if b.ClientID == "" {
		return false
	}
	switch b.Status {
	case models.StatusDepositPaid, models.StatusFullyPaid, models.StatusCompleted:
		return true
	}
	return false
}

// Create makes a new locked project for an eligible booking.
func (s *ProjectService) Create(ctx context.Context, req CreateRequest) (*models.Project, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	booking, err := s.Bookings.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", req.BookingID, err)
	}
	if !eligibleForProject(booking) {
		return nil, ErrNotEligible
	}

	project := models.Project{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		BookingID:     booking.ID,
		ClientID:      booking.ClientID,
		ContentLocked: true,
		Status:        req.Status,
		CreatedAt:     time.Now(),
	}

	if err := s.DB.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.Logger.Info("PROJECT", fmt.Sprintf("created project %s for booking %s", project.ID, booking.Reference))
	return &project, nil
}

// ToggleLock flips the content lock and invalidates any cached listings so
// the portal view changes immediately.
func (s *ProjectService) ToggleLock(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.DB.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s not found: %w", projectID, err)
	}

	project.ContentLocked = !project.ContentLocked
	if err := s.DB.SetLock(ctx, projectID, project.ContentLocked); err != nil {
		return nil, fmt.Errorf("failed to update lock: %w", err)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, projectID)
	}

	s.Logger.Info("PROJECT", fmt.Sprintf("project %s locked=%t", projectID, project.ContentLocked))
	return project, nil
}

// UnlockByBooking unlocks the project linked to a booking, if any. Called
// when a balance payment completes.
func (s *ProjectService) UnlockByBooking(ctx context.Context, bookingID string) error {
	project, err := s.DB.GetProjectByBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("no project for booking %s: %w", bookingID, err)
	}
	if !project.ContentLocked {
		return nil
	}

	if err := s.DB.SetLock(ctx, project.ID, false); err != nil {
		return fmt.Errorf("failed to unlock project %s: %w", project.ID, err)
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, project.ID)
	}

	s.Logger.Info("PROJECT", fmt.Sprintf("project %s unlocked on balance payment", project.ID))
	return nil
}

// UploadFile is one item of an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// UploadBatch writes each file under {project_id}/{kind}/{ts}_{name}. A
// failed file is reported in its result and never aborts the rest; the
// per-kind counter is bumped by the number of successes only.
func (s *ProjectService) UploadBatch(ctx context.Context, projectID string, kind models.FileKind, files []UploadFile) (*models.UploadBatchResponse, error) {
	if !kind.Valid() {
		return nil, ErrBadKind
	}
	if _, err := s.DB.GetProjectByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %s not found: %w", projectID, err)
	}

	resp := &models.UploadBatchResponse{ProjectID: projectID, Kind: kind}
	for _, file := range files {
		key := path.Join(projectID, string(kind), fmt.Sprintf("%d_%s", time.Now().Unix(), file.Name))

		if err := s.Store.Upload(file.Reader, key, file.ContentType); err != nil {
			s.Logger.Error("STORAGE", fmt.Sprintf("upload failed for %s: %v", key, err))
			resp.Results = append(resp.Results, models.UploadResult{
				FileName: file.Name,
				Error:    err.Error(),
			})
			resp.Failed++
			continue
		}

		resp.Results = append(resp.Results, models.UploadResult{
			FileName:  file.Name,
			ObjectKey: key,
			Success:   true,
		})
		resp.Uploaded++
	}

	if resp.Uploaded > 0 {
		if err := s.DB.AddFileCount(ctx, projectID, kind, resp.Uploaded); err != nil {
			s.Logger.Warn("PROJECT", fmt.Sprintf("failed to bump %s count for %s: %v", kind, projectID, err))
		}
		if s.Cache != nil {
			s.Cache.Invalidate(ctx, projectID)
		}
	}

	s.Logger.LogStorage("UPLOAD", projectID, fmt.Sprintf("%d uploaded, %d failed (%s)", resp.Uploaded, resp.Failed, kind))
	return resp, nil
}

// ListFiles lists the stored objects of one namespace.
func (s *ProjectService) ListFiles(ctx context.Context, projectID string, kind models.FileKind) ([]storage.ObjectInfo, error) {
	if !kind.Valid() {
		return nil, ErrBadKind
	}
	if _, err := s.DB.GetProjectByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %s not found: %w", projectID, err)
	}
	return s.Store.List(path.Join(projectID, string(kind)))
}

// Delete removes the project row and every object in both namespaces.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	if _, err := s.DB.GetProjectByID(ctx, projectID); err != nil {
		return fmt.Errorf("project %s not found: %w", projectID, err)
	}

	for _, kind := range []models.FileKind{models.KindPreview, models.KindFull} {
		prefix := path.Join(projectID, string(kind))
		if err := s.Store.DeletePrefix(prefix); err != nil {
			return fmt.Errorf("failed to delete %s files: %w", kind, err)
		}
	}

	if err := s.DB.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, projectID)
	}

	s.Logger.Info("PROJECT", fmt.Sprintf("deleted project %s and all stored files", projectID))
	return nil
}

func (s *ProjectService) Get(ctx context.Context, projectID string) (*models.Project, error) {
	return s.DB.GetProjectByID(ctx, projectID)
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return s.DB.ListProjects(ctx)
}

func (s *ProjectService) ListForClient(ctx context.Context, clientID string) ([]models.Project, error) {
	return s.DB.ListProjectsByClient(ctx, clientID)
}
