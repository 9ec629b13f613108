package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/domain/task"
	"shopadmin/catalog/internal/queue"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/state"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = time.Minute
)

// Worker applies queued product submissions to the backend
type Worker struct {
	client      client.BackendClient
	queue       queue.Queue
	drafts      state.DraftStore
	submissions repository.SubmissionRepository
	groupName   string
	minIdleTime time.Duration
	maxRetries  int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWorker(
	client client.BackendClient,
	queue queue.Queue,
	drafts state.DraftStore,
	submissions repository.SubmissionRepository,
	groupName string,
	minIdleTime int,
	maxRetries int,
) *Worker {
	if minIdleTime <= 0 {
		minIdleTime = 60
	}
	return &Worker{
		client:      client,
		queue:       queue,
		drafts:      drafts,
		submissions: submissions,
		groupName:   groupName,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
		maxRetries:  maxRetries,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Worker) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	w.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamName(task.TypeSubmitProduct), "main")
	w.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), queue.StreamName(task.TypeSubmitRetry), "retry")

	wg.Wait()
	return nil
}

func (w *Worker) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer picks up messages left pending by dead consumers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimed, err := w.queue.AutoClaim(ctx, w.groupName, consumer, streamName, w.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimed) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimed), workerType)
					for _, msg := range claimed {
						if err := w.processMessage(ctx, &msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := w.queue.GetTask(ctx, w.groupName, consumer, streamName)
					if err != nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						continue
					}

					if msg != nil {
						if err := w.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (w *Worker) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	switch taskType {
	case task.TypeSubmitProduct:
		submitTask, err := task.UnmarshalTask[*task.SubmitProductTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal submit task data: %w", err)
		}
		if err := w.handle(ctx, submitTask, 0); err != nil {
			return err
		}

	case task.TypeSubmitRetry:
		retryTask, err := task.UnmarshalTask[*task.SubmitRetryTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal retry task data: %w", err)
		}
		due, err := w.waitUntil(ctx, retryTask.NotBefore)
		if err != nil {
			return err
		}
		if !due {
			// not due yet; requeue unchanged before the claimer takes it
			if _, err := w.queue.AddTask(ctx, retryTask); err != nil {
				return fmt.Errorf("failed to requeue submission %s: %w", retryTask.Submission.SubmissionID, err)
			}
			break
		}
		log.Infof("🔄 Retrying submission %s (attempt %d)", retryTask.Submission.SubmissionID, retryTask.RetryCount+1)
		if err := w.handle(ctx, &retryTask.Submission, retryTask.RetryCount); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := w.queue.AckTask(ctx, queue.StreamName(taskType), w.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// waitUntil sleeps towards notBefore for at most half the claim idle time
// and reports whether notBefore has been reached.
func (w *Worker) waitUntil(ctx context.Context, notBefore time.Time) (bool, error) {
	wait := notBefore.Sub(w.now())
	if wait <= 0 {
		return true, nil
	}
	if err := w.sleep(ctx, min(wait, w.minIdleTime/2)); err != nil {
		return false, err
	}
	return !w.now().Before(notBefore), nil
}

// handle makes one backend attempt for a submission that already failed
// `failed` times. Failures are recorded and re-queued when worth retrying.
// An error is only returned when that bookkeeping fails before the backend
// was changed, so the message stays pending for the claimer.
func (w *Worker) handle(ctx context.Context, t *task.SubmitProductTask, failed int) error {
	record := &repository.Submission{
		ID:          t.SubmissionID,
		DraftID:     t.DraftID,
		ProductID:   t.ProductID,
		Paths:       t.Paths,
		CategoryIDs: t.Payload.CategoryIDs,
		Attempts:    failed + 1,
	}

	productID, applyErr := w.apply(ctx, t)
	if applyErr == nil {
		record.ProductID = productID
		record.Status = repository.SubmissionApplied
		// the product is saved; replaying the message would save it twice
		if err := w.submissions.SaveSubmission(ctx, record); err != nil {
			log.Errorf("❌ Failed to record applied submission %s: %v", t.SubmissionID, err)
		}
		w.settleDraft(ctx, t, productID)
		log.Infof("✅ Applied submission %s to product %s", t.SubmissionID, productID)
		return nil
	}

	record.LastError = applyErr.Error()

	var circuitErr *client.CircuitOpenError
	if errors.As(applyErr, &circuitErr) {
		// nothing was sent, so the attempt does not count
		record.Attempts = failed
		record.Status = repository.SubmissionRetrying
		if err := w.submissions.SaveSubmission(ctx, record); err != nil {
			return err
		}
		log.Warnf("🚫 Submission %s waits %v for the circuit breaker", t.SubmissionID, circuitErr.Remaining.Round(time.Second))
		return w.requeue(ctx, t, failed, circuitErr.Remaining, applyErr)
	}

	if !retryable(applyErr) || failed >= w.maxRetries {
		record.Status = repository.SubmissionAbandoned
		log.Errorf("❌ Abandoning submission %s after %d attempts: %v", t.SubmissionID, record.Attempts, applyErr)
		return w.submissions.SaveSubmission(ctx, record)
	}

	record.Status = repository.SubmissionRetrying
	if err := w.submissions.SaveSubmission(ctx, record); err != nil {
		return err
	}

	log.Warnf("🔄 Adding submission %s to retry queue due to error: %v", t.SubmissionID, applyErr)
	return w.requeue(ctx, t, failed+1, retryDelay(failed+1), applyErr)
}

func (w *Worker) requeue(ctx context.Context, t *task.SubmitProductTask, failed int, delay time.Duration, cause error) error {
	if _, err := w.queue.AddTask(ctx, &task.SubmitRetryTask{
		Submission: *t,
		RetryCount: failed,
		Error:      cause.Error(),
		NotBefore:  w.now().Add(delay),
	}); err != nil {
		log.Errorf("❌ Failed to add retry task for submission %s: %v", t.SubmissionID, err)
		return err
	}
	return nil
}

// settleDraft points the draft at the saved product so the next submit is
// an update, and releases it for another submit.
func (w *Worker) settleDraft(ctx context.Context, t *task.SubmitProductTask, productID string) {
	draft, err := w.drafts.GetDraft(ctx, t.DraftID)
	if err != nil {
		if !errors.Is(err, state.ErrDraftNotFound) {
			log.Warnf("⚠️ Failed to load draft %s after submission %s: %v", t.DraftID, t.SubmissionID, err)
		}
		return
	}
	draft.ProductID = productID
	if draft.SubmissionID == t.SubmissionID {
		draft.SubmissionID = ""
	}
	if err := w.drafts.SaveDraft(ctx, draft); err != nil {
		log.Warnf("⚠️ Failed to update draft %s after submission %s: %v", t.DraftID, t.SubmissionID, err)
	}
}

func (w *Worker) apply(ctx context.Context, t *task.SubmitProductTask) (string, error) {
	if t.IsCreate() {
		created, err := w.client.CreateProduct(ctx, t.Payload)
		if err != nil {
			return "", err
		}
		return created.ID, nil
	}

	if _, err := w.client.UpdateProduct(ctx, t.ProductID, t.Payload); err != nil {
		return "", err
	}
	return t.ProductID, nil
}

// retryDelay doubles from retryBaseDelay per failed attempt up to retryMaxDelay
func retryDelay(failed int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < failed && delay < retryMaxDelay; i++ {
		delay *= 2
	}
	return min(delay, retryMaxDelay)
}

// retryable is false for answers that will not change on their own: bad
// requests, missing products and rejected credentials.
func retryable(err error) bool {
	if errors.Is(err, client.ErrUnauthorized) {
		return false
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
	}
	return true
}
