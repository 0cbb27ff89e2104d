// Package gallery owns the authoritative ordered image sequence for one
// product. Every mutation goes through the Manager and is echoed to the
// owner via the change callback; nothing else may touch the sequence.
package gallery

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/images"
	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
)

// Mode is the gallery's interaction mode. The two modes are mutually
// exclusive: while reordering, the draft is the only sequence that moves.
type Mode string

const (
	ModeNormal     Mode = "normal"
	ModeReordering Mode = "reordering"
)

type apiClient interface {
	List(ctx context.Context, productID uuid.UUID) ([]images.Image, error)
	Promote(ctx context.Context, productID, imageID uuid.UUID) error
	Delete(ctx context.Context, productID, imageID uuid.UUID) error
	Reorder(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) error
}

// Manager maintains the image sequence for one product.
type Manager struct {
	mu sync.Mutex

	api       apiClient
	productID uuid.UUID
	onChange  func([]images.Image)

	images   []images.Image
	mode     Mode
	draft    []images.Image
	deleting map[uuid.UUID]bool
}

// NewManager builds a manager for one product. onChange, when set, receives
// a copy of the authoritative sequence after every committed mutation.
func NewManager(api apiClient, productID uuid.UUID, onChange func([]images.Image)) (*Manager, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id required")
	}
	return &Manager{
		api:       api,
		productID: productID,
		onChange:  onChange,
		mode:      ModeNormal,
		deleting:  make(map[uuid.UUID]bool),
	}, nil
}

// Load replaces the sequence with the server's authoritative state and
// resets the manager to normal mode. Called when the surface opens.
func (m *Manager) Load(ctx context.Context) error {
	list, err := m.api.List(ctx, m.productID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.images = list
	m.mode = ModeNormal
	m.draft = nil
	m.deleting = make(map[uuid.UUID]bool)
	m.mu.Unlock()

	m.emit()
	return nil
}

// Images returns the sequence currently being rendered: the draft while
// reordering, the authoritative sequence otherwise.
func (m *Manager) Images() []images.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeReordering {
		return copyImages(m.draft)
	}
	return copyImages(m.images)
}

// Count reports the authoritative image count, draft or not.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Mode reports the current interaction mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Append merges a freshly confirmed image at the end of the sequence. This is
// the only entry point the upload pipeline has into the gallery.
func (m *Manager) Append(img images.Image) {
	m.mu.Lock()
	if img.DisplayOrder == 0 {
		img.DisplayOrder = len(m.images) + 1
	}
	m.images = append(m.images, img)
	m.mu.Unlock()

	m.emit()
}

// Promote makes the target the product's only primary image. The local
// sequence rewrites only after the server accepts; there is no optimistic
// update to roll back.
func (m *Manager) Promote(ctx context.Context, imageID uuid.UUID) error {
	m.mu.Lock()
	if m.mode == ModeReordering {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "finish or cancel reordering first")
	}
	if !m.containsLocked(imageID) {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "image not in gallery")
	}
	m.mu.Unlock()

	if err := m.api.Promote(ctx, m.productID, imageID); err != nil {
		return err
	}

	m.mu.Lock()
	for i := range m.images {
		m.images[i].IsMain = m.images[i].ID == imageID
	}
	m.mu.Unlock()

	m.emit()
	return nil
}

// Delete removes the target after the server accepts, keeping the relative
// order of the remainder. Deleting different images concurrently is allowed;
// repeat deletes of the same image are rejected while one is in flight.
func (m *Manager) Delete(ctx context.Context, imageID uuid.UUID) error {
	m.mu.Lock()
	if m.mode == ModeReordering {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "finish or cancel reordering first")
	}
	if !m.containsLocked(imageID) {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "image not in gallery")
	}
	if m.deleting[imageID] {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "image is already being deleted")
	}
	m.deleting[imageID] = true
	m.mu.Unlock()

	err := m.api.Delete(ctx, m.productID, imageID)

	m.mu.Lock()
	delete(m.deleting, imageID)
	if err == nil {
		for i, img := range m.images {
			if img.ID == imageID {
				m.images = append(m.images[:i], m.images[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.emit()
	return nil
}

// Deleting reports whether a delete for the image is in flight.
func (m *Manager) Deleting(imageID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleting[imageID]
}

// BeginReorder snapshots the sequence into a draft and switches to
// reordering mode. All drag moves operate on the draft only.
func (m *Manager) BeginReorder() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeReordering {
		return pkgerrors.New(pkgerrors.CodeValidation, "reordering already in progress")
	}
	m.draft = copyImages(m.images)
	m.mode = ModeReordering
	return nil
}

// Move splices the draft element at from out and reinserts it at to. No
// network call is made per move.
func (m *Manager) Move(from, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeReordering {
		return pkgerrors.New(pkgerrors.CodeValidation, "not in reordering mode")
	}
	if from < 0 || from >= len(m.draft) || to < 0 || to >= len(m.draft) {
		return pkgerrors.New(pkgerrors.CodeValidation, "move index out of range")
	}
	if from == to {
		return nil
	}

	moved := m.draft[from]
	m.draft = append(m.draft[:from], m.draft[from+1:]...)
	rest := make([]images.Image, 0, len(m.draft)+1)
	rest = append(rest, m.draft[:to]...)
	rest = append(rest, moved)
	rest = append(rest, m.draft[to:]...)
	m.draft = rest
	return nil
}

// CommitReorder sends the draft's id order to the server. On success the
// draft becomes the authoritative sequence with display order renumbered
// 1..N; on failure the manager stays in reordering mode with the draft
// intact so the operator can retry or cancel.
func (m *Manager) CommitReorder(ctx context.Context) error {
	m.mu.Lock()
	if m.mode != ModeReordering {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "not in reordering mode")
	}
	ids := make([]uuid.UUID, len(m.draft))
	for i, img := range m.draft {
		ids[i] = img.ID
	}
	m.mu.Unlock()

	if err := m.api.Reorder(ctx, m.productID, ids); err != nil {
		return err
	}

	m.mu.Lock()
	for i := range m.draft {
		m.draft[i].DisplayOrder = i + 1
	}
	m.images = m.draft
	m.draft = nil
	m.mode = ModeNormal
	m.mu.Unlock()

	m.emit()
	return nil
}

// CancelReorder discards the draft and leaves the authoritative sequence
// untouched.
func (m *Manager) CancelReorder() {
	m.mu.Lock()
	m.draft = nil
	m.mode = ModeNormal
	m.mu.Unlock()
}

func (m *Manager) containsLocked(imageID uuid.UUID) bool {
	for _, img := range m.images {
		if img.ID == imageID {
			return true
		}
	}
	return false
}

func (m *Manager) emit() {
	if m.onChange == nil {
		return
	}
	m.mu.Lock()
	snapshot := copyImages(m.images)
	m.mu.Unlock()
	m.onChange(snapshot)
}

func copyImages(list []images.Image) []images.Image {
	out := make([]images.Image, len(list))
	copy(out, list)
	return out
}
