package images

import (
	"time"

	"github.com/google/uuid"
)

// Image is one persisted product image as the admin API reports it. The
// server assigns the id; exactly one image per product carries IsMain and
// DisplayOrder is dense and 1-based after any reorder commit.
type Image struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	URL          string    `json:"url"`
	IsMain       bool      `json:"is_main"`
	DisplayOrder int       `json:"display_order"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadSlot is the negotiated write target for one pending image: a
// destination URL for the byte transfer and the opaque key that identifies
// the pending record at confirm time.
type UploadSlot struct {
	UploadURL string
	Key       string
}

// Role tells the direct-to-storage negotiation whether the pending image will
// become the product's primary image.
type Role string

const (
	RoleMain    Role = "main"
	RoleGallery Role = "gallery"
)

// RoleFor picks the negotiation role from the primary-image rule: the first
// image a product ever gets is its main image.
func RoleFor(isMain bool) Role {
	if isMain {
		return RoleMain
	}
	return RoleGallery
}
