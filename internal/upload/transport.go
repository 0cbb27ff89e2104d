// Package upload moves product image bytes to durable storage with the
// 3-step protocol: negotiate a write target, transfer the bytes, confirm the
// persisted record. The wire variant is chosen once from configuration; the
// queue in this package sequences batches of files through a Transport.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/images"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/config"
	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
)

// ProgressFunc receives the transfer percentage in [0,100]. It is only
// invoked when the source's total length is known up front.
type ProgressFunc func(percent int)

// Transport executes the full 3-step protocol for one file. Failure at any
// step aborts the sequence; a negotiated-but-never-transferred key is
// abandoned server-side.
type Transport interface {
	Upload(ctx context.Context, productID uuid.UUID, src Source, isMain bool, progress ProgressFunc) (*images.Image, error)
}

type apiClient interface {
	NegotiateLocal(ctx context.Context, productID uuid.UUID, filename, contentType string) (*images.UploadSlot, error)
	NegotiateDirect(ctx context.Context, productID uuid.UUID, contentType string, role images.Role) (*images.UploadSlot, error)
	Confirm(ctx context.Context, productID uuid.UUID, imageKey string, isMain bool) (*images.Image, error)
}

// TransportOption configures optional transport behavior.
type TransportOption func(*transportSettings)

type transportSettings struct {
	httpClient *http.Client
}

// WithTransferHTTPClient overrides the client used for the byte transfer PUT.
func WithTransferHTTPClient(client *http.Client) TransportOption {
	return func(s *transportSettings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewTransport selects the wire variant from the configured storage mode.
// The mode is resolved here, once, and never re-read.
func NewTransport(cfg config.UploadConfig, api apiClient, opts ...TransportOption) (Transport, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if !cfg.StorageMode.IsValid() {
		return nil, fmt.Errorf("invalid storage mode %q", cfg.StorageMode)
	}

	settings := transportSettings{httpClient: &http.Client{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	if cfg.StorageMode == config.StorageModeDirect {
		timeout := cfg.TransferTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		return &directTransport{api: api, httpClient: settings.httpClient, timeout: timeout}, nil
	}
	return &localTransport{api: api, httpClient: settings.httpClient}, nil
}

// localTransport negotiates with a POST and PUTs through the backend proxy.
// The transfer has no explicit timeout beyond the underlying client's.
type localTransport struct {
	api        apiClient
	httpClient *http.Client
}

func (t *localTransport) Upload(ctx context.Context, productID uuid.UUID, src Source, isMain bool, progress ProgressFunc) (*images.Image, error) {
	slot, err := t.api.NegotiateLocal(ctx, productID, src.Name, src.ContentType)
	if err != nil {
		return nil, err
	}
	if err := putObject(ctx, t.httpClient, slot.UploadURL, src, progress); err != nil {
		return nil, err
	}
	return t.api.Confirm(ctx, productID, slot.Key, isMain)
}

// directTransport negotiates with a GET and PUTs straight to object storage
// via the presigned URL, under a hard transfer deadline.
type directTransport struct {
	api        apiClient
	httpClient *http.Client
	timeout    time.Duration
}

func (t *directTransport) Upload(ctx context.Context, productID uuid.UUID, src Source, isMain bool, progress ProgressFunc) (*images.Image, error) {
	slot, err := t.api.NegotiateDirect(ctx, productID, src.ContentType, images.RoleFor(isMain))
	if err != nil {
		return nil, err
	}

	transferCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := putObject(transferCtx, t.httpClient, slot.UploadURL, src, progress); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err,
				fmt.Sprintf("transfer of %s exceeded %s", src.Name, t.timeout))
		}
		return nil, err
	}

	return t.api.Confirm(ctx, productID, slot.Key, isMain)
}

// putObject streams the raw file bytes to the negotiated destination.
func putObject(ctx context.Context, client *http.Client, destination string, src Source, progress ProgressFunc) error {
	rc, err := src.Open()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransfer, err, fmt.Sprintf("open %s", src.Name))
	}
	defer func() { _ = rc.Close() }()

	var body io.Reader = rc
	if src.Size > 0 && progress != nil {
		body = &progressReader{reader: rc, total: src.Size, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, destination, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransfer, err, "build transfer request")
	}
	if src.Size > 0 {
		req.ContentLength = src.Size
	}
	req.Header.Set("Content-Type", src.ContentType)

	resp, err := client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransfer, err, fmt.Sprintf("transfer %s", src.Name))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return pkgerrors.Wrap(pkgerrors.CodeTransfer,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(msg)),
			fmt.Sprintf("transfer %s rejected", src.Name))
	}
	return nil
}

// progressReader reports bytes-sent as a percentage of the known total. The
// percentage is monotonic and clamped to [0,100].
type progressReader struct {
	reader io.Reader
	total  int64
	sent   int64
	last   int
	report ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.sent += int64(n)
		percent := int(r.sent * 100 / r.total)
		if percent > 100 {
			percent = 100
		}
		if percent > r.last {
			r.last = percent
			r.report(percent)
		}
	}
	return n, err
}
