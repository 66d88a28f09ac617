package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dygy/score-grep/internal/midifile"
	"github.com/dygy/score-grep/internal/pipeline"
	"github.com/dygy/score-grep/internal/score"
	"github.com/dygy/score-grep/internal/workspace"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// Job represents one analysis request. The mutable fields are guarded by
// mu; handlers read them through the accessor methods while Process writes.
type Job struct {
	ID        string
	Filename  string
	InputPath string
	Key       string
	Work      *workspace.Workspace
	Updates   chan string
	CreatedAt time.Time

	mu     sync.Mutex
	status JobStatus
	stage  string
	result *pipeline.Result
	errMsg string
}

// Status returns the current job status.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Stage returns the current processing stage.
func (j *Job) Stage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage
}

// Err returns the failure message, empty unless the job failed.
func (j *Job) Err() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

// Result returns the finished analysis, nil until the job completes.
func (j *Job) Result() *pipeline.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

func (j *Job) setStatus(s JobStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) setStage(stage string) {
	j.mu.Lock()
	j.stage = stage
	j.mu.Unlock()
	j.push(stage)
}

// push sends a progress update without blocking; updates nobody is
// streaming are dropped rather than stalling the analysis.
func (j *Job) push(msg string) {
	select {
	case j.Updates <- msg:
	default:
	}
}

func (j *Job) complete(res *pipeline.Result) {
	j.mu.Lock()
	j.result = res
	j.status = StatusComplete
	j.stage = "Complete!"
	j.mu.Unlock()
	j.push("Complete!")
}

func (j *Job) fail(msg string) {
	j.mu.Lock()
	j.status = StatusFailed
	j.errMsg = msg
	j.mu.Unlock()
	j.push(msg)
}

// JobManager manages analysis jobs
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
	cfg  pipeline.Config
	ttl  time.Duration
}

// NewJobManager creates a new job manager
func NewJobManager(cfg pipeline.Config, ttl time.Duration) *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
		cfg:  cfg,
		ttl:  ttl,
	}
}

// Create creates a new pending job with its own workspace.
func (m *JobManager) Create() (*Job, error) {
	ws, err := workspace.New()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        uuid.NewString(),
		Work:      ws,
		Updates:   make(chan string, 10),
		CreatedAt: time.Now(),
		status:    StatusPending,
		stage:     "Uploading...",
	}

	m.jobs[job.ID] = job
	return job, nil
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Remove deletes a job immediately and reclaims its workspace. Used when
// an upload fails before processing starts; finished jobs expire via TTL.
func (m *JobManager) Remove(id string) {
	m.mu.Lock()
	job := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()

	if job != nil {
		job.Work.Cleanup()
	}
}

// Process runs the analysis pipeline for a job
func (m *JobManager) Process(job *Job) {
	defer close(job.Updates)
	defer func() {
		time.AfterFunc(m.ttl, func() {
			m.Remove(job.ID)
		})
	}()

	job.setStatus(StatusProcessing)
	job.setStage("Loading score...")

	comp, err := loadComposition(job.InputPath)
	if err != nil {
		job.fail(fmt.Sprintf("Loading failed: %v", err))
		return
	}
	job.push(fmt.Sprintf("%d notes loaded", comp.NoteCount()))

	job.setStage("Analyzing...")

	analyzeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := pipeline.Analyze(analyzeCtx, comp, job.Key, nil, m.cfg, nil)
	if err != nil {
		job.fail(fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	job.complete(res)
}

func loadComposition(path string) (*score.Composition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return midifile.Load(path)
	default:
		return score.DecodeCompositionFile(path)
	}
}
