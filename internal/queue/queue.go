package queue

import (
	"sync"

	"github.com/atoms-tech/mcpregistry/internal/logger"
)

// ReconcileJob represents a registry reconciliation run in the queue
type ReconcileJob struct {
	Id        string
	Trigger   string // "interval" or "manual"
	ImportNew bool
}

// JobQueue manages the job queue with a channel-based system
type JobQueue struct {
	jobs chan *ReconcileJob
	done chan bool
	mu   sync.Mutex
}

// NewJobQueue creates a new job queue with the specified buffer size
func NewJobQueue(bufferSize int) *JobQueue {
	return &JobQueue{
		jobs: make(chan *ReconcileJob, bufferSize),
		done: make(chan bool),
	}
}

// Enqueue adds a job to the queue. The send happens under the same lock
// Close takes, so a shutdown can never close the channel mid-send. A full
// buffer is reported rather than waited on.
func (jq *JobQueue) Enqueue(job *ReconcileJob) error {
	logger.WithFields(map[string]interface{}{
		"job_id":  job.Id,
		"trigger": job.Trigger,
	}).Debug("Enqueueing reconcile job")

	jq.mu.Lock()
	defer jq.mu.Unlock()

	select {
	case <-jq.done:
		logger.WithField("job_id", job.Id).Warn("Failed to enqueue job: queue is closed")
		return ErrQueueClosed
	default:
	}

	select {
	case jq.jobs <- job:
		logger.WithField("job_id", job.Id).Info("Reconcile job enqueued successfully")
		return nil
	default:
		logger.WithField("job_id", job.Id).Warn("Failed to enqueue job: queue is full")
		return ErrQueueFull
	}
}

// Dequeue retrieves the next job from the queue
// Returns nil if the queue is closed
func (jq *JobQueue) Dequeue() *ReconcileJob {
	return <-jq.jobs
}

// Jobs returns the underlying channel for job consumption
func (jq *JobQueue) Jobs() <-chan *ReconcileJob {
	return jq.jobs
}

// Close closes the queue
func (jq *JobQueue) Close() {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	select {
	case <-jq.done:
		return // Already closed
	default:
		close(jq.done)
		close(jq.jobs)
	}
}

// WorkerPool manages multiple workers processing jobs
type WorkerPool struct {
	queue   *JobQueue
	workers int
	jobs    chan *ReconcileJob
	wg      sync.WaitGroup
	done    chan bool
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue *JobQueue, numWorkers int) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		workers: numWorkers,
		jobs:    queue.jobs,
		done:    make(chan bool),
	}
}

// Start starts all workers
func (wp *WorkerPool) Start(handler func(*ReconcileJob) error) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(handler)
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(handler func(*ReconcileJob) error) {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				logger.Debug("Worker exiting: jobs channel closed")
				return
			}
			if job != nil {
				logger.WithFields(map[string]interface{}{
					"job_id":  job.Id,
					"trigger": job.Trigger,
				}).Info("Worker processing reconcile job")

				err := handler(job)
				if err != nil {
					logger.WithFields(map[string]interface{}{
						"job_id": job.Id,
						"error":  err.Error(),
					}).Error("Worker failed to process reconcile job")
				} else {
					logger.WithField("job_id", job.Id).Info("Worker completed reconcile job successfully")
				}
			}
		case <-wp.done:
			logger.Debug("Worker exiting: stop signal received")
			return
		}
	}
}

// Stop stops all workers
func (wp *WorkerPool) Stop() {
	close(wp.done)
	wp.wg.Wait()
}

// Wait waits for all workers to finish
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}
