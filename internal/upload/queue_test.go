package upload

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/images"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/config"
)

// stubTransport fails the files listed in failures and confirms everything
// else, recording call order and the primary flags it was handed.
type stubTransport struct {
	mu       sync.Mutex
	calls    []string
	mains    []bool
	failures map[string]error
}

func (s *stubTransport) Upload(ctx context.Context, productID uuid.UUID, src Source, isMain bool, progress ProgressFunc) (*images.Image, error) {
	s.mu.Lock()
	s.calls = append(s.calls, src.Name)
	s.mains = append(s.mains, isMain)
	err := s.failures[src.Name]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(50)
		progress(100)
	}
	return &images.Image{ID: uuid.New(), ProductID: productID, IsMain: isMain}, nil
}

func (s *stubTransport) callNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubTransport) mainFlags() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.mains...)
}

// recorder collects queue callbacks behind a lock so tests can assert after
// Wait returns.
type recorder struct {
	mu         sync.Mutex
	imageCount int
	confirmed  []images.Image
	errors     []string
	errorFiles []string
	snapshots  [][]Task
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnTasks: func(tasks []Task) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.snapshots = append(r.snapshots, tasks)
		},
		OnImage: func(img images.Image) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.imageCount++
			r.confirmed = append(r.confirmed, img)
		},
		OnError: func(fileName, message string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errorFiles = append(r.errorFiles, fileName)
			r.errors = append(r.errors, message)
		},
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imageCount
}

func (r *recorder) errorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func queueConfig() config.UploadConfig {
	cfg := testUploadConfig()
	cfg.InterFileDelay = time.Millisecond
	cfg.DismissDelay = 25 * time.Millisecond
	return cfg
}

func pngSource(name string, size int64) Source {
	return Source{
		Name:        name,
		ContentType: "image/png",
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(strings.Repeat("x", int(size)))), nil
		},
	}
}

func newTestQueue(t *testing.T, cfg config.UploadConfig, transport Transport, rec *recorder) *Queue {
	t.Helper()

	q, err := NewQueue(cfg, transport, uuid.New(), rec.count, rec.callbacks(), nil)
	require.NoError(t, err)
	t.Cleanup(q.Close)
	return q
}

func TestQueueRejectsInvalidFilesBeforeAnyNetworkCall(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	q := newTestQueue(t, queueConfig(), transport, rec)

	batch := []Source{
		pngSource("fine.png", 10),
		{Name: "doc.pdf", ContentType: "application/pdf", Size: 10},
		{Name: "huge.png", ContentType: "image/png", Size: queueConfig().MaxFileBytes + 1},
	}
	require.NoError(t, q.Enqueue(batch))
	q.Wait()

	require.Equal(t, []string{"fine.png"}, transport.callNames(), "rejected files must never reach negotiation")
	require.Len(t, rec.errorMessages(), 2)
	require.Equal(t, 1, rec.count())
}

func TestQueueRejectsWholeBatchOverFileLimit(t *testing.T) {
	t.Parallel()

	cfg := queueConfig()
	cfg.MaxFilesPerProduct = 3
	transport := &stubTransport{}
	rec := &recorder{imageCount: 2} // product already has two images
	q := newTestQueue(t, cfg, transport, rec)

	err := q.Enqueue([]Source{pngSource("a.png", 1), pngSource("b.png", 1)})
	require.Error(t, err)
	q.Wait()

	require.Empty(t, transport.callNames(), "no file may be partially admitted")
	require.Empty(t, q.Tasks())
	require.Len(t, rec.errorMessages(), 1)
}

func TestQueueFirstUploadIsMainOnlyForEmptyProduct(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	q := newTestQueue(t, queueConfig(), transport, rec)

	require.NoError(t, q.Enqueue([]Source{
		pngSource("first.png", 1),
		pngSource("second.png", 1),
		pngSource("third.png", 1),
	}))
	q.Wait()

	require.Equal(t, []bool{true, false, false}, transport.mainFlags())
}

func TestQueueUploadsSequentiallyInBatchOrder(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	q := newTestQueue(t, queueConfig(), transport, rec)

	var batch []Source
	var want []string
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("file-%d.png", i)
		batch = append(batch, pngSource(name, 1))
		want = append(want, name)
	}
	require.NoError(t, q.Enqueue(batch))
	q.Wait()

	require.Equal(t, want, transport.callNames())
	require.Equal(t, 5, rec.count())
}

func TestQueueFailureDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{failures: map[string]error{
		"bad.png": fmt.Errorf("storage went away"),
	}}
	rec := &recorder{}
	cfg := queueConfig()
	cfg.DismissDelay = time.Hour // keep successes visible for assertions
	q := newTestQueue(t, cfg, transport, rec)

	require.NoError(t, q.Enqueue([]Source{
		pngSource("ok1.png", 1),
		pngSource("bad.png", 1),
		pngSource("ok2.png", 1),
	}))
	q.Wait()

	require.Equal(t, 2, rec.count(), "exactly the successful uploads must be confirmed")
	require.Len(t, rec.errorMessages(), 1)

	tasks := q.Tasks()
	require.Len(t, tasks, 3)
	byName := map[string]Task{}
	for _, task := range tasks {
		byName[task.FileName] = task
	}
	require.Equal(t, StatusSuccess, byName["ok1.png"].Status)
	require.Equal(t, StatusError, byName["bad.png"].Status)
	require.NotEmpty(t, byName["bad.png"].Message)
	require.Equal(t, StatusSuccess, byName["ok2.png"].Status)
}

func TestQueueRetryLeavesSingleTaskPerFile(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{failures: map[string]error{
		"flaky.png": fmt.Errorf("first attempt fails"),
	}}
	rec := &recorder{}
	cfg := queueConfig()
	cfg.DismissDelay = time.Hour
	q := newTestQueue(t, cfg, transport, rec)

	require.NoError(t, q.Enqueue([]Source{pngSource("flaky.png", 1)}))
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, StatusError, tasks[0].Status)

	// clear the failure and retry the task
	transport.mu.Lock()
	delete(transport.failures, "flaky.png")
	transport.mu.Unlock()

	require.NoError(t, q.Retry(tasks[0].ID))
	q.Wait()

	tasks = q.Tasks()
	require.Len(t, tasks, 1, "retry must not leave two tasks for one file")
	require.Equal(t, StatusSuccess, tasks[0].Status)
	require.NotEqual(t, tasks[0].ID, uuid.Nil)
	require.Equal(t, 2, len(transport.callNames()), "retry restarts at step one")
}

func TestQueueRetryRejectsNonFailedTasks(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	cfg := queueConfig()
	cfg.DismissDelay = time.Hour
	q := newTestQueue(t, cfg, transport, rec)

	require.NoError(t, q.Enqueue([]Source{pngSource("done.png", 1)}))
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Error(t, q.Retry(tasks[0].ID), "successful tasks cannot be retried")
	require.Error(t, q.Retry(uuid.New()), "unknown tasks cannot be retried")
}

func TestQueueSuccessSelfDismisses(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	q := newTestQueue(t, queueConfig(), transport, rec)

	require.NoError(t, q.Enqueue([]Source{pngSource("gone.png", 1)}))
	q.Wait()

	require.Eventually(t, func() bool {
		return len(q.Tasks()) == 0
	}, time.Second, 5*time.Millisecond, "successful task should leave the visible queue")
	require.Equal(t, 1, rec.count(), "dismissal is cosmetic, the image stays confirmed")
}

func TestQueueDismissHidesTask(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{failures: map[string]error{
		"bad.png": fmt.Errorf("nope"),
	}}
	rec := &recorder{}
	cfg := queueConfig()
	cfg.DismissDelay = time.Hour
	q := newTestQueue(t, cfg, transport, rec)

	require.NoError(t, q.Enqueue([]Source{pngSource("bad.png", 1)}))
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	q.Dismiss(tasks[0].ID)
	require.Empty(t, q.Tasks())
}

func TestQueueReportsProgressSnapshots(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{}
	rec := &recorder{}
	cfg := queueConfig()
	cfg.DismissDelay = time.Hour
	q := newTestQueue(t, cfg, transport, rec)

	require.NoError(t, q.Enqueue([]Source{pngSource("p.png", 1)}))
	q.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	sawPartial := false
	for _, snapshot := range rec.snapshots {
		for _, task := range snapshot {
			if task.FileName == "p.png" && task.Progress == 50 && task.Status == StatusUploading {
				sawPartial = true
			}
		}
	}
	require.True(t, sawPartial, "expected a snapshot with 50%% progress")
}
