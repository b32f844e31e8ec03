package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FileKind selects one of the two storage sub-namespaces per project.
type FileKind string

const (
	KindPreview FileKind = "preview"
	KindFull    FileKind = "full"
)

func (k FileKind) Valid() bool {
	return k == KindPreview || k == KindFull
}

// Project is a deliverable bundle for a client. ContentLocked is the sole
// access-control signal for its media: locked projects expose only the
// preview namespace, unlocked projects the full namespace.
type Project struct {
	bun.BaseModel `bun:"table:projects"`

	ID          string `bun:"id,pk" json:"id"`
	Title       string `bun:"title,notnull" json:"title"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`

	BookingID string `bun:"booking_id,nullzero" json:"booking_id,omitempty"`
	ClientID  string `bun:"client_id,notnull" json:"client_id"`

	ContentLocked bool   `bun:"content_locked,notnull,default:true" json:"content_locked"`
	Status        string `bun:"status,nullzero" json:"status,omitempty"`

	// Legacy inline URL lists, kept as a fallback for projects created before
	// the storage-namespace layout. The gate only consults them when the
	// corresponding namespace is empty.
	LegacyGalleryURLs []string `bun:"legacy_gallery_urls,array" json:"legacy_gallery_urls,omitempty"`
	LegacyVideoURLs   []string `bun:"legacy_video_urls,array" json:"legacy_video_urls,omitempty"`

	PreviewCount int `bun:"preview_count,notnull,default:0" json:"preview_count"`
	FullCount    int `bun:"full_count,notnull,default:0" json:"full_count"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// UploadResult is the per-file outcome of a batch upload. A failed file never
// aborts the rest of the batch.
type UploadResult struct {
	FileName  string `json:"file_name"`
	ObjectKey string `json:"object_key,omitempty"`
	Error     string `json:"error,omitempty"`
	Success   bool   `json:"success"`
}

type UploadBatchResponse struct {
	ProjectID string         `json:"project_id"`
	Kind      FileKind       `json:"kind"`
	Results   []UploadResult `json:"results"`
	Uploaded  int            `json:"uploaded"`
	Failed    int            `json:"failed"`
}
