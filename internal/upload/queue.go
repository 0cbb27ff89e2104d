package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/images"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/config"
	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/logger"
)

// Callbacks is how the queue reports state to its owner. Every callback is
// optional; none is invoked while the queue's lock is held.
type Callbacks struct {
	// OnTasks receives a snapshot of the visible task list after every change.
	OnTasks func(tasks []Task)
	// OnImage receives each confirmed image, in upload order.
	OnImage func(img images.Image)
	// OnError receives a human-readable message per rejected or failed file.
	// fileName is empty for whole-batch rejections.
	OnError func(fileName, message string)
}

// Queue sequences a product's file uploads: admission and validation before
// any network call, then strictly one transfer at a time with a fixed delay
// between files. Ordering comes from the single runner loop, not a lock
// around a shared resource.
type Queue struct {
	mu   sync.Mutex
	idle *sync.Cond

	cfg        config.UploadConfig
	transport  Transport
	productID  uuid.UUID
	imageCount func() int
	callbacks  Callbacks
	logg       *logger.Logger

	tasks   []*Task
	pending []uuid.UUID
	timers  []*time.Timer
	running bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue builds a queue for one product. imageCount must report the
// product's current authoritative image count; it decides both batch
// admission and the primary-image flag of the next upload.
func NewQueue(cfg config.UploadConfig, transport Transport, productID uuid.UUID, imageCount func() int, callbacks Callbacks, logg *logger.Logger) (*Queue, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport required")
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id required")
	}
	if imageCount == nil {
		return nil, fmt.Errorf("image count source required")
	}
	if cfg.MaxFilesPerProduct <= 0 {
		return nil, fmt.Errorf("max files per product must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:        cfg,
		transport:  transport,
		productID:  productID,
		imageCount: imageCount,
		callbacks:  callbacks,
		logg:       logg,
		ctx:        ctx,
		cancel:     cancel,
	}
	q.idle = sync.NewCond(&q.mu)
	return q, nil
}

// Enqueue admits a batch of files. The whole batch is rejected when it would
// push the product past the file limit; otherwise each file is validated
// individually and invalid files are reported without blocking their
// siblings. Admitted files upload sequentially in batch order.
func (q *Queue) Enqueue(batch []Source) error {
	if len(batch) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInternal, "upload queue closed")
	}
	if total := len(q.tasks) + len(batch) + q.imageCount(); total > q.cfg.MaxFilesPerProduct {
		q.mu.Unlock()
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("a product can have at most %d images", q.cfg.MaxFilesPerProduct))
		q.report("", pkgerrors.UserMessage(err))
		return err
	}

	admitted := 0
	type rejection struct {
		name    string
		message string
	}
	var rejected []rejection
	for _, src := range batch {
		if err := validateSource(q.cfg, src); err != nil {
			rejected = append(rejected, rejection{name: src.Name, message: pkgerrors.UserMessage(err)})
			continue
		}
		task := &Task{
			ID:       uuid.New(),
			FileName: src.Name,
			Size:     src.Size,
			Status:   StatusUploading,
			src:      src,
		}
		q.tasks = append(q.tasks, task)
		q.pending = append(q.pending, task.ID)
		admitted++
	}
	q.startRunnerLocked()
	q.mu.Unlock()

	for _, r := range rejected {
		q.report(r.name, r.message)
	}
	if admitted > 0 {
		q.emitTasks()
	}
	return nil
}

// Retry restarts a failed task from step one of the protocol. The failed
// task is removed first so at most one task per file is ever live.
func (q *Queue) Retry(taskID uuid.UUID) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInternal, "upload queue closed")
	}
	task := q.taskByIDLocked(taskID)
	if task == nil {
		q.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown upload task")
	}
	if task.Status != StatusError {
		q.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "only failed uploads can be retried")
	}

	src := task.src
	q.removeTaskLocked(taskID)
	fresh := &Task{
		ID:       uuid.New(),
		FileName: src.Name,
		Size:     src.Size,
		Status:   StatusUploading,
		src:      src,
	}
	q.tasks = append(q.tasks, fresh)
	q.pending = append(q.pending, fresh.ID)
	q.startRunnerLocked()
	q.mu.Unlock()

	q.emitTasks()
	return nil
}

// Dismiss removes a task from the visible queue. It does not abort an
// in-flight transfer; only Close cancels network work.
func (q *Queue) Dismiss(taskID uuid.UUID) {
	q.mu.Lock()
	removed := q.removeTaskLocked(taskID)
	q.mu.Unlock()
	if removed {
		q.emitTasks()
	}
}

// Tasks returns a snapshot of the visible task list.
func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Wait blocks until no uploads are pending or in flight.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.running {
		q.idle.Wait()
	}
}

// Close cancels in-flight transfers and stops the queue. The queue cannot be
// reused afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, timer := range q.timers {
		timer.Stop()
	}
	q.timers = nil
	q.pending = nil
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *Queue) startRunnerLocked() {
	if q.running || len(q.pending) == 0 {
		return
	}
	q.running = true
	q.wg.Add(1)
	go q.runLoop()
}

func (q *Queue) runLoop() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			q.running = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		id := q.pending[0]
		q.pending = q.pending[1:]
		task := q.taskByIDLocked(id)
		if task == nil {
			// dismissed before its turn
			q.mu.Unlock()
			continue
		}
		src := task.src
		q.mu.Unlock()

		isMain := q.imageCount() == 0
		img, err := q.transport.Upload(q.ctx, q.productID, src, isMain, func(percent int) {
			q.setProgress(id, percent)
		})

		q.mu.Lock()
		if task := q.taskByIDLocked(id); task != nil {
			if err != nil {
				task.Status = StatusError
				task.Message = pkgerrors.UserMessage(err)
			} else {
				task.Status = StatusSuccess
				task.Progress = 100
				q.scheduleDismissLocked(id)
			}
		}
		q.mu.Unlock()
		q.emitTasks()

		if err != nil {
			if q.logg != nil {
				ctx := q.logg.WithFileName(context.Background(), src.Name)
				q.logg.Error(ctx, "upload failed", err)
			}
			q.report(src.Name, pkgerrors.UserMessage(err))
		} else {
			if q.logg != nil {
				ctx := q.logg.WithFileName(context.Background(), src.Name)
				q.logg.Info(ctx, "upload confirmed")
			}
			if q.callbacks.OnImage != nil && img != nil {
				q.callbacks.OnImage(*img)
			}
		}

		select {
		case <-q.ctx.Done():
		case <-time.After(q.cfg.InterFileDelay):
		}
	}
}

func (q *Queue) setProgress(taskID uuid.UUID, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	q.mu.Lock()
	task := q.taskByIDLocked(taskID)
	changed := task != nil && percent > task.Progress
	if changed {
		task.Progress = percent
	}
	q.mu.Unlock()

	if changed {
		q.emitTasks()
	}
}

// scheduleDismissLocked removes a successful task from the visible queue
// after the grace delay. Cosmetic only; the image is committed by then.
func (q *Queue) scheduleDismissLocked(taskID uuid.UUID) {
	if q.cfg.DismissDelay <= 0 {
		return
	}
	timer := time.AfterFunc(q.cfg.DismissDelay, func() {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return
		}
		removed := q.removeTaskLocked(taskID)
		q.mu.Unlock()
		if removed {
			q.emitTasks()
		}
	})
	q.timers = append(q.timers, timer)
}

func (q *Queue) taskByIDLocked(taskID uuid.UUID) *Task {
	for _, task := range q.tasks {
		if task.ID == taskID {
			return task
		}
	}
	return nil
}

func (q *Queue) removeTaskLocked(taskID uuid.UUID) bool {
	for i, task := range q.tasks {
		if task.ID == taskID {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) snapshotLocked() []Task {
	out := make([]Task, len(q.tasks))
	for i, task := range q.tasks {
		out[i] = *task
	}
	return out
}

func (q *Queue) emitTasks() {
	if q.callbacks.OnTasks == nil {
		return
	}
	q.mu.Lock()
	snapshot := q.snapshotLocked()
	q.mu.Unlock()
	q.callbacks.OnTasks(snapshot)
}

func (q *Queue) report(fileName, message string) {
	if q.callbacks.OnError != nil {
		q.callbacks.OnError(fileName, message)
	}
}
