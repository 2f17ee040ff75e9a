package generation_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelmint/reelmint/internal/generation"
	"github.com/reelmint/reelmint/internal/provider"
	"github.com/reelmint/reelmint/internal/store"
	"github.com/reelmint/reelmint/internal/store/model"
)

// fakeRecords is an in-memory store.Job with the same transition guards as
// the real one.
type fakeRecords struct {
	lock sync.Mutex
	jobs map[uuid.UUID]*model.Job
}

var _ store.Job = (*fakeRecords)(nil)

func newFakeRecords() *fakeRecords {
	return &fakeRecords{jobs: make(map[uuid.UUID]*model.Job)}
}

func (f *fakeRecords) InitialMigration() error { return nil }

func (f *fakeRecords) Create(_ context.Context, job model.Job) (*model.Job, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	job.CreatedAt = time.Now()
	f.jobs[job.ID] = &job
	copy := job
	return &copy, nil
}

func (f *fakeRecords) Get(_ context.Context, id uuid.UUID) (*model.Job, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *job
	return &copy, nil
}

func (f *fakeRecords) List(_ context.Context, _ *store.JobQueryFilter) (model.JobList, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	var out model.JobList
	for _, job := range f.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (f *fakeRecords) MarkSubmitted(_ context.Context, id uuid.UUID, runRef string) (*model.Job, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	if job.ProviderRunRef == nil && !job.IsTerminal() {
		ref := runRef
		job.ProviderRunRef = &ref
		job.Status = model.JobStatusProcessing
	}
	copy := *job
	return &copy, nil
}

func (f *fakeRecords) MarkComplete(_ context.Context, id uuid.UUID, resultURL string) (*model.Job, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	if !job.IsTerminal() {
		now := time.Now()
		url := resultURL
		job.Status = model.JobStatusComplete
		job.ResultURL = &url
		job.CompletedAt = &now
	}
	copy := *job
	return &copy, nil
}

func (f *fakeRecords) MarkFailed(_ context.Context, id uuid.UUID, reason []byte) (*model.Job, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	if !job.IsTerminal() {
		now := time.Now()
		job.Status = model.JobStatusFailed
		job.FailureReason = reason
		job.CompletedAt = &now
	}
	copy := *job
	return &copy, nil
}

// fakeProvider scripts the provider's answers. Poll statuses are consumed in
// order; the last one repeats.
type fakeProvider struct {
	lock sync.Mutex

	submitRef   string
	submitErr   error
	submitCalls int
	onSubmit    func()

	pollStatuses []provider.Status
	pollErrs     []error
	pollCalls    int
	lastPolled   string

	result        *provider.Result
	fetchErr      error
	onFetchResult func()

	downloadErr error
}

var _ generation.ProviderClient = (*fakeProvider)(nil)

func (f *fakeProvider) Submit(_ context.Context, _ provider.SubmitRequest) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.submitCalls++
	if f.onSubmit != nil {
		f.onSubmit()
	}
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitRef, nil
}

func (f *fakeProvider) PollStatus(_ context.Context, runRef string) (provider.Status, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.lastPolled = runRef
	idx := f.pollCalls
	f.pollCalls++
	if idx < len(f.pollErrs) && f.pollErrs[idx] != nil {
		return provider.StatusUnknown, f.pollErrs[idx]
	}
	if len(f.pollStatuses) == 0 {
		return provider.StatusRunning, nil
	}
	if idx >= len(f.pollStatuses) {
		idx = len(f.pollStatuses) - 1
	}
	return f.pollStatuses[idx], nil
}

func (f *fakeProvider) FetchResult(_ context.Context, _ string) (*provider.Result, error) {
	if f.onFetchResult != nil {
		f.onFetchResult()
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.result, nil
}

func (f *fakeProvider) Download(_ context.Context, _ string) (io.ReadCloser, int64, error) {
	if f.downloadErr != nil {
		return nil, 0, f.downloadErr
	}
	return io.NopCloser(strings.NewReader("video-bytes")), int64(len("video-bytes")), nil
}

func (f *fakeProvider) submitCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.submitCalls
}

// fakeArtifacts records stored keys and can be told to fail.
type fakeArtifacts struct {
	lock     sync.Mutex
	storeErr error
	keys     []string
	url      string
}

func (f *fakeArtifacts) Store(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.storeErr != nil {
		return "", f.storeErr
	}
	_, _ = io.Copy(io.Discard, r)
	f.keys = append(f.keys, key)
	return f.url, nil
}

// recordingNotifier captures terminal notifications.
type recordingNotifier struct {
	lock      sync.Mutex
	completed []*model.Job
	failed    []generation.FailureReason
}

func (n *recordingNotifier) JobCompleted(_ context.Context, job *model.Job) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.completed = append(n.completed, job)
}

func (n *recordingNotifier) JobFailed(_ context.Context, _ *model.Job, reason generation.FailureReason) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.failed = append(n.failed, reason)
}

var errBoom = errors.New("boom")
