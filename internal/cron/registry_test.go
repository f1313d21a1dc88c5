package cron

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryStoresJobs(t *testing.T) {
	jobA := &testJob{name: "a"}
	jobB := &testJob{name: "b"}
	registry := NewRegistry(jobA, nil)
	registry.Register(jobB)
	registry.Register(nil)

	jobs := registry.Jobs()
	require.Equal(t, []Job{jobA, jobB}, jobs)

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0], "internal slice leaked")
}
