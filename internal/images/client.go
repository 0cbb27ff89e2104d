// Package images binds the admin product-image endpoints. It owns the wire
// shapes for both negotiation variants and the gallery mutations; the byte
// transfer itself happens elsewhere because the negotiated destination is not
// the API host.
package images

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/gateway"
	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
)

// Client speaks the admin image API through the authenticated gateway.
type Client struct {
	gw *gateway.Client
}

// NewClient wraps the gateway with image endpoint bindings.
func NewClient(gw *gateway.Client) (*Client, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &Client{gw: gw}, nil
}

// List fetches the product's images in display order.
func (c *Client) List(ctx context.Context, productID uuid.UUID) ([]Image, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	var out []Image
	if err := c.gw.Get(ctx, imagesPath(productID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type negotiateLocalRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type negotiateLocalResponse struct {
	UploadURL string `json:"uploadUrl"`
	ImageKey  string `json:"imageKey"`
}

// NegotiateLocal requests a backend-proxied write target for the file.
func (c *Client) NegotiateLocal(ctx context.Context, productID uuid.UUID, filename, contentType string) (*UploadSlot, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	req := negotiateLocalRequest{Filename: filename, ContentType: contentType}
	var resp negotiateLocalResponse
	if err := c.gw.Post(ctx, imagesPath(productID)+"/generate-upload-url", req, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNegotiation, err, "negotiate upload slot")
	}
	return slotFrom(resp.UploadURL, resp.ImageKey)
}

type negotiateDirectResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

// NegotiateDirect requests a time-limited presigned PUT URL for the file.
func (c *Client) NegotiateDirect(ctx context.Context, productID uuid.UUID, contentType string, role Role) (*UploadSlot, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	query := url.Values{}
	query.Set("content_type", contentType)
	query.Set("product_id", productID.String())
	query.Set("type", string(role))

	var resp negotiateDirectResponse
	if err := c.gw.Get(ctx, imagesPath(productID)+"/generate-upload-url", query, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNegotiation, err, "negotiate presigned url")
	}
	return slotFrom(resp.UploadURL, resp.Key)
}

type confirmRequest struct {
	ImageKey string `json:"imageKey"`
	IsMain   bool   `json:"isMain"`
}

// Confirm registers the transferred bytes as a persisted image.
func (c *Client) Confirm(ctx context.Context, productID uuid.UUID, imageKey string, isMain bool) (*Image, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(imageKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image key required")
	}
	var img Image
	if err := c.gw.Post(ctx, imagesPath(productID)+"/confirm", confirmRequest{ImageKey: imageKey, IsMain: isMain}, &img); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfirm, err, "confirm upload")
	}
	return &img, nil
}

// Promote flags the image as the product's primary image.
func (c *Client) Promote(ctx context.Context, productID, imageID uuid.UUID) error {
	if productID == uuid.Nil || imageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and image ids required")
	}
	if err := c.gw.Put(ctx, imagesPath(productID)+"/"+imageID.String(), nil, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMutation, err, "promote image")
	}
	return nil
}

// Delete removes the image.
func (c *Client) Delete(ctx context.Context, productID, imageID uuid.UUID) error {
	if productID == uuid.Nil || imageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and image ids required")
	}
	if err := c.gw.Delete(ctx, imagesPath(productID)+"/"+imageID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMutation, err, "delete image")
	}
	return nil
}

// Reorder persists the given id sequence as the product's display order.
func (c *Client) Reorder(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if len(imageIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "image ids required")
	}
	if err := c.gw.Put(ctx, imagesPath(productID)+"/reorder", imageIDs, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMutation, err, "reorder images")
	}
	return nil
}

func imagesPath(productID uuid.UUID) string {
	return fmt.Sprintf("/admin/products/%s/images", productID)
}

func slotFrom(uploadURL, key string) (*UploadSlot, error) {
	if strings.TrimSpace(uploadURL) == "" || strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNegotiation, "negotiation response missing upload url or key")
	}
	return &UploadSlot{UploadURL: uploadURL, Key: key}, nil
}
