package portal

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"studio-service/internal/logger"
	"studio-service/internal/models"
	"studio-service/internal/storage"
)

var ErrForbidden = errors.New("project belongs to another client")

type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
}

// ClassifyAsset buckets a file by extension: known video extensions are
// videos, everything else is treated as an image.
func ClassifyAsset(name string) AssetType {
	if videoExtensions[strings.ToLower(path.Ext(name))] {
		return AssetVideo
	}
	return AssetImage
}

// Asset is one portal-visible deliverable.
//
// While a project is locked, images carry a signed preview URL with the
// obscured/watermark flags set, but videos carry no URL at all — a blurred
// video element would still expose the source, so locked videos are withheld
// entirely and rendered as a named placeholder.
type Asset struct {
	Name         string    `json:"name"`
	Type         AssetType `json:"type"`
	URL          string    `json:"url,omitempty"`
	Obscured     bool      `json:"obscured"`
	Watermark    bool      `json:"watermark"`
	Downloadable bool      `json:"downloadable"`
	// Unavailable marks an asset whose URL could not be signed; the rest of
	// the view still renders.
	Unavailable bool `json:"unavailable,omitempty"`
}

// ProjectView is what the client portal renders for one project.
type ProjectView struct {
	ProjectID      string  `json:"project_id"`
	Title          string  `json:"title"`
	Locked         bool    `json:"locked"`
	Assets         []Asset `json:"assets"`
	ContentPending bool    `json:"content_pending"`
	// PaymentDue prompts for the outstanding balance while content is locked.
	PaymentDue   bool  `json:"payment_due"`
	BalancePence int64 `json:"balance_pence,omitempty"`
}

type ProjectReader interface {
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]models.Project, error)
}

type BookingReader interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
}

type ObjectStore interface {
	List(prefix string) ([]storage.ObjectInfo, error)
	SignedURL(key string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, projectID string, kind models.FileKind) ([]storage.ObjectInfo, bool)
	Set(ctx context.Context, projectID string, kind models.FileKind, objects []storage.ObjectInfo)
}

type Gate struct {
	Projects ProjectReader
	Bookings BookingReader
	Store    ObjectStore
	Cache    Cache
	Logger   *logger.Logger
}

func NewGate(projects ProjectReader, bookings BookingReader, store ObjectStore, cache Cache, log *logger.Logger) *Gate {
	return &Gate{Projects: projects, Bookings: bookings, Store: store, Cache: cache, Logger: log}
}

// View resolves what a client may see for one project. The lock flag is the
// sole access signal: locked projects resolve assets only from the preview
// namespace, unlocked ones from full (falling back to preview when full is
// empty). When the chosen namespace has nothing, legacy inline URLs on the
// record are used; when those are empty too the view is an explicit
// content-pending state, never a silent empty screen.
func (g *Gate) View(ctx context.Context, projectID, viewerID string, isAdmin bool) (*ProjectView, error) {
	project, err := g.Projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s not found: %w", projectID, err)
	}
	if !isAdmin && project.ClientID != viewerID {
		return nil, ErrForbidden
	}

	view := &ProjectView{
		ProjectID: project.ID,
		Title:     project.Title,
		Locked:    project.ContentLocked,
	}

	objects, err := g.resolveObjects(ctx, project)
	if err != nil {
		return nil, err
	}

	if len(objects) > 0 {
		for _, obj := range objects {
			asset, err := g.buildAsset(obj, project.ContentLocked)
			if err != nil {
				// One unsignable object must not take down the whole view.
				g.Logger.Warn("PORTAL", fmt.Sprintf("could not sign %s: %v", obj.Key, err))
				view.Assets = append(view.Assets, Asset{
					Name:        obj.Name,
					Type:        ClassifyAsset(obj.Name),
					Unavailable: true,
				})
				continue
			}
			view.Assets = append(view.Assets, asset)
		}
	} else {
		view.Assets = legacyAssets(project)
		view.ContentPending = len(view.Assets) == 0
	}

	g.attachPaymentPrompt(ctx, project, view)
	return view, nil
}

// ListForClient returns the portal view headers for all of a client's
// projects, without resolving file listings.
func (g *Gate) ListForClient(ctx context.Context, clientID string) ([]models.Project, error) {
	return g.Projects.ListProjectsByClient(ctx, clientID)
}

// resolveObjects picks the namespace for the lock state: preview when locked;
// full when unlocked, falling back to preview if full is empty.
func (g *Gate) resolveObjects(ctx context.Context, project *models.Project) ([]storage.ObjectInfo, error) {
	if project.ContentLocked {
		return g.listKind(ctx, project.ID, models.KindPreview)
	}

	objects, err := g.listKind(ctx, project.ID, models.KindFull)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return g.listKind(ctx, project.ID, models.KindPreview)
	}
	return objects, nil
}

func (g *Gate) listKind(ctx context.Context, projectID string, kind models.FileKind) ([]storage.ObjectInfo, error) {
	if g.Cache != nil {
		if objects, ok := g.Cache.Get(ctx, projectID, kind); ok {
			return objects, nil
		}
	}

	objects, err := g.Store.List(path.Join(projectID, string(kind)))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}

	if g.Cache != nil {
		g.Cache.Set(ctx, projectID, kind, objects)
	}
	return objects, nil
}

func (g *Gate) buildAsset(obj storage.ObjectInfo, locked bool) (Asset, error) {
	asset := Asset{
		Name: obj.Name,
		Type: ClassifyAsset(obj.Name),
	}

	if locked {
		if asset.Type == AssetVideo {
			// Placeholder only: no source URL until unlocked.
			return asset, nil
		}
		url, err := g.Store.SignedURL(obj.Key)
		if err != nil {
			return Asset{}, err
		}
		asset.URL = url
		asset.Obscured = true
		asset.Watermark = true
		return asset, nil
	}

	url, err := g.Store.SignedURL(obj.Key)
	if err != nil {
		return Asset{}, err
	}
	asset.URL = url
	asset.Downloadable = true
	return asset, nil
}

// legacyAssets applies the same gating rules to the inline URL arrays kept
// from before the storage-namespace layout.
func legacyAssets(project *models.Project) []Asset {
	var assets []Asset
	for _, url := range project.LegacyGalleryURLs {
		asset := Asset{
			Name: url[strings.LastIndex(url, "/")+1:],
			Type: AssetImage,
		}
		if project.ContentLocked {
			asset.URL = url
			asset.Obscured = true
			asset.Watermark = true
		} else {
			asset.URL = url
			asset.Downloadable = true
		}
		assets = append(assets, asset)
	}
	for _, url := range project.LegacyVideoURLs {
		asset := Asset{
			Name: url[strings.LastIndex(url, "/")+1:],
			Type: AssetVideo,
		}
		if !project.ContentLocked {
			asset.URL = url
			asset.Downloadable = true
		}
		assets = append(assets, asset)
	}
	return assets
}

// attachPaymentPrompt exposes the outstanding balance while content is locked
// and the linked booking has only the deposit paid.
func (g *Gate) attachPaymentPrompt(ctx context.Context, project *models.Project, view *ProjectView) {
	if !project.ContentLocked || project.BookingID == "" || g.Bookings == nil {
		return
	}
	booking, err := g.Bookings.GetBookingByID(ctx, project.BookingID)
	if err != nil {
		g.Logger.Warn("PORTAL", fmt.Sprintf("could not load booking %s for payment prompt: %v", project.BookingID, err))
		return
	}
	if booking.Status == models.StatusDepositPaid {
		view.PaymentDue = true
		view.BalancePence = booking.BalancePence
	}
}
