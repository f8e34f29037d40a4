package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrder(t *testing.T) {
	closeJob := &namedJob{name: "order-close"}
	reminderJob := &namedJob{name: "deadline-reminder"}

	registry := NewRegistry(closeJob, nil)
	registry.Register(reminderJob)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != closeJob || jobs[1] != reminderJob {
		t.Fatal("jobs returned out of registration order")
	}

	// mutating the returned slice must not touch the registry
	jobs[0] = nil
	if registry.Jobs()[0] != closeJob {
		t.Fatal("registry exposed its internal slice")
	}
}
