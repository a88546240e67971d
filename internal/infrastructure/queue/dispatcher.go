package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/api/metrics"
	"github.com/adomia/account-gate/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// CleanupDispatcher runs the best-effort upstream cleanup that follows a
// recorded deletion (delete the account upstream, revoke the session) off
// the request path. Tasks shard onto a fixed set of workers by external user
// id, so cleanup for one identity never interleaves with itself. Failures
// are logged and dropped: the tombstone already written is the source of
// truth, whatever upstream does.
type CleanupDispatcher struct {
	workers []chan ports.CleanupTask
	gateway ports.UpstreamGateway
	log     zerolog.Logger
}

// NewCleanupDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleanupDispatcher(numWorkers int, gateway ports.UpstreamGateway, log zerolog.Logger) *CleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &CleanupDispatcher{
		workers: make([]chan ports.CleanupTask, numWorkers),
		gateway: gateway,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CleanupTask, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// tasks still queued at that point are abandoned, which is acceptable for
// advisory cleanup.
func (d *CleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a cleanup task to the worker owning its identity. When the
// worker's buffer is full the task is dropped rather than blocking the
// deletion response.
func (d *CleanupDispatcher) Enqueue(task ports.CleanupTask) {
	select {
	case d.workers[d.shardIndex(task.ExternalUserID)] <- task:
	default:
		d.log.Warn().Str("external_user_id", task.ExternalUserID).
			Msg("cleanup queue full, dropping task")
	}
}

// shardIndex maps an external user id deterministically to a worker index.
func (d *CleanupDispatcher) shardIndex(externalUserID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(externalUserID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *CleanupDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CleanupTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			d.process(ctx, id, task)
		}
	}
}

// process runs the two cleanup steps independently; neither failure stops
// the other.
func (d *CleanupDispatcher) process(ctx context.Context, workerID int, task ports.CleanupTask) {
	if err := d.gateway.DeleteUser(ctx, task.ExternalUserID, task.Cookie, task.Authorization); err != nil {
		metrics.CleanupFailuresTotal.WithLabelValues("user_delete").Inc()
		d.log.Warn().Err(err).
			Str("external_user_id", task.ExternalUserID).
			Int("worker_id", workerID).
			Msg("upstream account delete failed")
	}
	if err := d.gateway.Logout(ctx, task.Cookie, task.Authorization); err != nil {
		metrics.CleanupFailuresTotal.WithLabelValues("logout").Inc()
		d.log.Warn().Err(err).
			Str("external_user_id", task.ExternalUserID).
			Int("worker_id", workerID).
			Msg("upstream session revoke failed")
	}
}
