package workers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/notifications"
	"github.com/dedsfe/cinevibe/internal/resolver"
	"github.com/dedsfe/cinevibe/internal/title"
)

// Factory builds the resolver owned by one worker lane. Each lane gets its
// own resolver, and with it its own catalog session.
type Factory func(shard int) (*resolver.Resolver, error)

// Job statuses.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job tracks one background resolution.
type Job struct {
	ID         string           `json:"jobId"`
	Request    resolver.Request `json:"request"`
	Status     string           `json:"status"`
	Result     *resolver.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

type task struct {
	req   resolver.Request
	reply chan taskResult
	jobID string
}

type taskResult struct {
	result *resolver.Result
	err    error
}

// lane is one serial worker: a task queue bound to a resolver.
type lane struct {
	tasks    chan task
	resolver *resolver.Resolver
}

const laneQueueDepth = 64

// Pool fans resolution requests across sharded workers. Requests for the
// same title always land on the same lane, so concurrent requests for one
// title serialize instead of racing the catalog. Background jobs run on a
// separate lane set with their own catalog sessions, so a slow catalog walk
// in the background never delays a synchronous request.
type Pool struct {
	foreground []lane
	background []lane
	notifier   notifications.Service
	logger     *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job

	wg      sync.WaitGroup
	started bool
}

// NewPool builds a pool with the given foreground and background lane
// counts. The notifier may be nil.
func NewPool(shardCount, backgroundCount int, factory Factory, notifier notifications.Service, logger *slog.Logger) (*Pool, error) {
	if shardCount <= 0 {
		shardCount = 1
	}
	if backgroundCount <= 0 {
		backgroundCount = 1
	}
	if factory == nil {
		return nil, errors.New("factory is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	pool := &Pool{
		notifier: notifier,
		logger:   logging.WithComponent(logger, "workers"),
		jobs:     make(map[string]*Job),
	}
	closeBuilt := func() {
		for _, ln := range pool.foreground {
			_ = ln.resolver.Close()
		}
		for _, ln := range pool.background {
			_ = ln.resolver.Close()
		}
	}
	for i := 0; i < shardCount; i++ {
		res, err := factory(i)
		if err != nil {
			closeBuilt()
			return nil, fmt.Errorf("build resolver for shard %d: %w", i, err)
		}
		pool.foreground = append(pool.foreground, lane{
			tasks:    make(chan task, laneQueueDepth),
			resolver: res,
		})
	}
	for i := 0; i < backgroundCount; i++ {
		res, err := factory(shardCount + i)
		if err != nil {
			closeBuilt()
			return nil, fmt.Errorf("build resolver for background lane %d: %w", i, err)
		}
		pool.background = append(pool.background, lane{
			tasks:    make(chan task, laneQueueDepth),
			resolver: res,
		})
	}
	return pool, nil
}

// Start launches the lane loops. They drain until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		return
	}
	p.started = true
	for i := range p.foreground {
		p.wg.Add(1)
		go p.runLane(ctx, p.foreground[i], p.logger.With(logging.Int(logging.FieldShard, i)))
	}
	for i := range p.background {
		p.wg.Add(1)
		go p.runLane(ctx, p.background[i], p.logger.With(
			logging.Int(logging.FieldShard, i),
			logging.Bool("background", true)))
	}
}

// Wait blocks until every lane loop has exited and sessions are closed.
func (p *Pool) Wait() {
	p.wg.Wait()
	for _, ln := range p.foreground {
		_ = ln.resolver.Close()
	}
	for _, ln := range p.background {
		_ = ln.resolver.Close()
	}
}

func (p *Pool) runLane(ctx context.Context, ln lane, logger *slog.Logger) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ln.tasks:
			p.runTask(ctx, logger, ln, t)
		}
	}
}

func (p *Pool) runTask(ctx context.Context, logger *slog.Logger, ln lane, t task) {
	if t.jobID != "" {
		p.setJobStatus(t.jobID, JobRunning, nil, nil)
	}
	result, err := ln.resolver.Resolve(ctx, t.req)
	if err != nil {
		logger.Error("resolution failed",
			logging.String(logging.FieldTitle, t.req.Title),
			logging.Error(err))
	}
	if t.jobID != "" {
		p.setJobStatus(t.jobID, "", result, err)
	}
	if t.reply != nil {
		t.reply <- taskResult{result: result, err: err}
	}
	p.notify(ctx, t.req, result, err)
}

func (p *Pool) notify(ctx context.Context, req resolver.Request, result *resolver.Result, err error) {
	if p.notifier == nil {
		return
	}
	switch {
	case err != nil:
		_ = p.notifier.NotifyError(ctx, err, "resolution")
	case result.Outcome == resolver.OutcomeResolved && !result.FromCache:
		_ = p.notifier.NotifyResolved(ctx, req.Title, result.Record.MediaID)
	case result.Outcome == resolver.OutcomeMissing && !result.FromCache:
		_ = p.notifier.NotifyMissing(ctx, req.Title, result.Reason)
	}
}

// Resolve runs a request on its title's foreground lane and waits for the
// outcome.
func (p *Pool) Resolve(ctx context.Context, req resolver.Request) (*resolver.Result, error) {
	reply := make(chan taskResult, 1)
	ln := p.foreground[p.ShardFor(req.Title)]
	select {
	case ln.tasks <- task{req: req, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Enqueue schedules a resolution on a background lane and returns its job ID.
func (p *Pool) Enqueue(req resolver.Request) (string, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	ln := p.background[laneFor(req.Title, len(p.background))]
	select {
	case ln.tasks <- task{req: req, jobID: job.ID}:
		return job.ID, nil
	default:
		p.mu.Lock()
		delete(p.jobs, job.ID)
		p.mu.Unlock()
		return "", errors.New("background queue full")
	}
}

// JobStatus returns a snapshot of a background job, or nil when unknown.
func (p *Pool) JobStatus(jobID string) *Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// QueueDepths reports pending task counts per foreground lane.
func (p *Pool) QueueDepths() []int {
	depths := make([]int, len(p.foreground))
	for i, ln := range p.foreground {
		depths[i] = len(ln.tasks)
	}
	return depths
}

// BackgroundDepths reports pending task counts per background lane.
func (p *Pool) BackgroundDepths() []int {
	depths := make([]int, len(p.background))
	for i, ln := range p.background {
		depths[i] = len(ln.tasks)
	}
	return depths
}

func (p *Pool) setJobStatus(jobID, status string, result *resolver.Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[jobID]
	if !ok {
		return
	}
	if status != "" {
		job.Status = status
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		return
	}
	job.Status = JobDone
	job.Result = result
}

// ShardFor maps a title to its foreground lane. The hash runs over the
// normalized title so spelling variance in punctuation and case cannot split
// one title across sessions.
func (p *Pool) ShardFor(requested string) int {
	return laneFor(requested, len(p.foreground))
}

func laneFor(requested string, lanes int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title.Normalize(requested)))
	return int(h.Sum32() % uint32(lanes))
}
