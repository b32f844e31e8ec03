package project

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"studio-service/internal/logger"
	"studio-service/internal/models"
	"studio-service/internal/storage"
)

type MockProjectDB struct {
	projects      map[string]*models.Project
	shouldFailOn  string
	errorToReturn error
}

func NewMockProjectDB() *MockProjectDB {
	return &MockProjectDB{projects: make(map[string]*models.Project)}
}

func (m *MockProjectDB) CreateProject(ctx context.Context, project models.Project) error {
	if m.shouldFailOn == "CreateProject" {
		return m.errorToReturn
	}
	m.projects[project.ID] = &project
	return nil
}

func (m *MockProjectDB) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	project, exists := m.projects[id]
	if !exists {
		return nil, errors.New("project not found")
	}
	return project, nil
}

func (m *MockProjectDB) GetProjectByBooking(ctx context.Context, bookingID string) (*models.Project, error) {
	for _, project := range m.projects {
		if project.BookingID == bookingID {
			return project, nil
		}
	}
	return nil, errors.New("project not found")
}

func (m *MockProjectDB) ListProjects(ctx context.Context) ([]models.Project, error) {
	var all []models.Project
	for _, project := range m.projects {
		all = append(all, *project)
	}
	return all, nil
}

func (m *MockProjectDB) ListProjectsByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	var mine []models.Project
	for _, project := range m.projects {
		if project.ClientID == clientID {
			mine = append(mine, *project)
		}
	}
	return mine, nil
}

func (m *MockProjectDB) SetLock(ctx context.Context, id string, locked bool) error {
	if m.shouldFailOn == "SetLock" {
		return m.errorToReturn
	}
	project, exists := m.projects[id]
	if !exists {
		return errors.New("project not found")
	}
	project.ContentLocked = locked
	return nil
}

func (m *MockProjectDB) AddFileCount(ctx context.Context, id string, kind models.FileKind, delta int) error {
	project, exists := m.projects[id]
	if !exists {
		return errors.New("project not found")
	}
	if kind == models.KindFull {
		project.FullCount += delta
	} else {
		project.PreviewCount += delta
	}
	return nil
}

func (m *MockProjectDB) DeleteProject(ctx context.Context, id string) error {
	delete(m.projects, id)
	return nil
}

type MockObjectStore struct {
	uploads        map[string]string // key -> content type
	deletedPrefix  []string
	failOnContains string
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{uploads: make(map[string]string)}
}

func (m *MockObjectStore) Upload(src io.Reader, key, contentType string) error {
	if m.failOnContains != "" && strings.Contains(key, m.failOnContains) {
		return storage.ErrObjectExists
	}
	m.uploads[key] = contentType
	return nil
}

func (m *MockObjectStore) List(prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for key := range m.uploads {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key})
		}
	}
	return objects, nil
}

func (m *MockObjectStore) DeletePrefix(prefix string) error {
	m.deletedPrefix = append(m.deletedPrefix, prefix)
	for key := range m.uploads {
		if strings.HasPrefix(key, prefix) {
			delete(m.uploads, key)
		}
	}
	return nil
}

type MockBookings struct {
	bookings map[string]*models.Booking
}

func (m *MockBookings) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, exists := m.bookings[id]
	if !exists {
		return nil, errors.New("booking not found")
	}
	return booking, nil
}

type MockCache struct {
	invalidated []string
}

func (m *MockCache) Invalidate(ctx context.Context, projectID string) {
	m.invalidated = append(m.invalidated, projectID)
}

func setupProjectService() (*ProjectService, *MockProjectDB, *MockObjectStore, *MockBookings, *MockCache) {
	mockDB := NewMockProjectDB()
	store := NewMockObjectStore()
	bookings := &MockBookings{bookings: make(map[string]*models.Booking)}
	cache := &MockCache{}
	service := NewProjectService(mockDB, store, bookings, cache, logger.NewLogger())
	return service, mockDB, store, bookings, cache
}

func TestCreateRequiresEligibleBooking(t *testing.T) {
	service, _, _, bookings, _ := setupProjectService()

	tests := []struct {
		name    string
		booking models.Booking
		wantErr error
	}{
		{"no linked client", models.Booking{ID: "b1", Status: models.StatusDepositPaid}, ErrNotEligible},
		{"unpaid", models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusPendingDeposit}, ErrNotEligible},
		{"cancelled", models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusCancelled}, ErrNotEligible},
		{"deposit paid", models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusDepositPaid}, nil},
		{"fully paid", models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusFullyPaid}, nil},
		{"completed", models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusCompleted}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := tt.booking
			bookings.bookings["b1"] = &booking

			_, err := service.Create(context.Background(), CreateRequest{Title: "Wedding", BookingID: "b1"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateStartsLocked(t *testing.T) {
	service, mockDB, _, bookings, _ := setupProjectService()
	bookings.bookings["b1"] = &models.Booking{ID: "b1", ClientID: "c1", Status: models.StatusDepositPaid}

	created, err := service.Create(context.Background(), CreateRequest{Title: "Wedding", BookingID: "b1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.ContentLocked {
		t.Error("new project must start locked")
	}
	if created.ClientID != "c1" {
		t.Errorf("client id = %s, want c1", created.ClientID)
	}
	if _, exists := mockDB.projects[created.ID]; !exists {
		t.Error("project not persisted")
	}
}

func TestToggleLockInvalidatesCache(t *testing.T) {
	service, mockDB, _, _, cache := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1", ContentLocked: true}

	project, err := service.ToggleLock(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.ContentLocked {
		t.Error("expected unlock")
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "p1" {
		t.Errorf("cache invalidations = %v", cache.invalidated)
	}

	// Toggling again relocks.
	project, _ = service.ToggleLock(context.Background(), "p1")
	if !project.ContentLocked {
		t.Error("expected relock")
	}
}

func TestUnlockByBookingIsIdempotent(t *testing.T) {
	service, mockDB, _, _, cache := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1", BookingID: "b1", ContentLocked: false}

	if err := service.UnlockByBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.invalidated) != 0 {
		t.Error("already-unlocked project should not touch the cache")
	}
}

func TestUploadBatchIsolatesFailures(t *testing.T) {
	service, mockDB, store, _, cache := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1"}
	store.failOnContains = "bad"

	resp, err := service.UploadBatch(context.Background(), "p1", models.KindPreview, []UploadFile{
		{Name: "good.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("a")},
		{Name: "bad.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("b")},
		{Name: "also_good.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("c")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Uploaded != 2 || resp.Failed != 1 {
		t.Errorf("uploaded=%d failed=%d, want 2/1", resp.Uploaded, resp.Failed)
	}
	if mockDB.projects["p1"].PreviewCount != 2 {
		t.Errorf("preview count = %d, want 2", mockDB.projects["p1"].PreviewCount)
	}
	if len(cache.invalidated) != 1 {
		t.Errorf("cache invalidations = %v", cache.invalidated)
	}

	for _, result := range resp.Results {
		if result.FileName == "bad.jpg" {
			if result.Success || result.Error == "" {
				t.Errorf("failed file not reported: %+v", result)
			}
		} else if !result.Success {
			t.Errorf("good file reported failed: %+v", result)
		}
	}
}

func TestUploadBatchKeysUseNamespace(t *testing.T) {
	service, mockDB, store, _, _ := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1"}

	_, err := service.UploadBatch(context.Background(), "p1", models.KindFull, []UploadFile{
		{Name: "final.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("a")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for key := range store.uploads {
		if !strings.HasPrefix(key, "p1/full/") {
			t.Errorf("key %q not under p1/full/", key)
		}
		if !strings.HasSuffix(key, "_final.jpg") {
			t.Errorf("key %q missing timestamped name", key)
		}
	}
}

func TestUploadBatchRejectsBadKind(t *testing.T) {
	service, mockDB, _, _, _ := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1"}

	_, err := service.UploadBatch(context.Background(), "p1", models.FileKind("thumbnails"), nil)
	if !errors.Is(err, ErrBadKind) {
		t.Fatalf("expected ErrBadKind, got %v", err)
	}
}

func TestDeleteRemovesBothNamespaces(t *testing.T) {
	service, mockDB, store, _, _ := setupProjectService()
	mockDB.projects["p1"] = &models.Project{ID: "p1"}
	store.uploads["p1/preview/1_a.jpg"] = "image/jpeg"
	store.uploads["p1/full/1_a.jpg"] = "image/jpeg"

	if err := service.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.deletedPrefix) != 2 {
		t.Errorf("deleted prefixes = %v, want both namespaces", store.deletedPrefix)
	}
	if _, exists := mockDB.projects["p1"]; exists {
		t.Error("project row not removed")
	}
}
