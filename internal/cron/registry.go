package cron

import "context"

// Job is one scheduled task run by the worker each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker instance runs, keyed by name.
// Registering a name twice replaces the earlier job.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{byName: make(map[string]Job)}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds or replaces a job.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	name := job.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = job
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}
