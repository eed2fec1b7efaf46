// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/datalens/core"
)

// Registry is a token-keyed, concurrency-safe store of ingestion jobs.
// Any number of jobs can run concurrently; each token tracks exactly one
// job. Get returns snapshot copies, so callers never observe a job
// mid-update.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// jobEntry serializes updates per token independently of the map lock.
type jobEntry struct {
	mu     sync.Mutex
	job    core.IngestionJob
	cancel context.CancelFunc
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*jobEntry)}
}

// Create registers a new job under the token in the Queued state.
func (r *Registry) Create(token string) error {
	if token == "" {
		return core.ErrEmptyToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[token]; ok {
		return ErrJobExists
	}
	r.jobs[token] = &jobEntry{
		job: core.IngestionJob{
			Token:     token,
			Status:    core.StatusQueued,
			StartedAt: time.Now().UTC(),
		},
	}
	return nil
}

// Get returns a snapshot copy of the job for the token.
func (r *Registry) Get(token string) (core.IngestionJob, error) {
	entry, err := r.entry(token)
	if err != nil {
		return core.IngestionJob{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.job, nil
}

// Update applies fn to the job under the token's lock. Progress is kept
// monotonically non-decreasing; a terminal status stamps FinishedAt.
func (r *Registry) Update(token string, fn func(job *core.IngestionJob)) error {
	entry, err := r.entry(token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	prevProgress := entry.job.Progress
	fn(&entry.job)
	if entry.job.Progress < prevProgress {
		entry.job.Progress = prevProgress
	}
	if entry.job.Status.Terminal() && entry.job.FinishedAt.IsZero() {
		entry.job.FinishedAt = time.Now().UTC()
	}
	return nil
}

// BindCancel attaches the job's cancellation function.
func (r *Registry) BindCancel(token string, cancel context.CancelFunc) error {
	entry, err := r.entry(token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.cancel = cancel
	return nil
}

// Cancel signals the job's context to stop. The job transitions to a
// terminal state through the orchestrator, not here.
func (r *Registry) Cancel(token string) error {
	entry, err := r.entry(token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	cancel := entry.cancel
	entry.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Tokens returns the tokens of all registered jobs.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]string, 0, len(r.jobs))
	for token := range r.jobs {
		tokens = append(tokens, token)
	}
	return tokens
}

func (r *Registry) entry(token string) (*jobEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[token]
	if !ok {
		return nil, ErrJobNotFound
	}
	return entry, nil
}
