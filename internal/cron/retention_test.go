package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	called      int
	err         error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func asRetentionJob(t *testing.T, job Job, err error) *retentionJob {
	t.Helper()
	require.NoError(t, err)
	typed, ok := job.(*retentionJob)
	require.True(t, ok, "expected retentionJob, got %T", job)
	return typed
}

func TestOutboxRetentionJobUsesDefaults(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	built, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTx{},
		Repository: repo,
	})
	job := asRetentionJob(t, built, err)
	job.now = func() time.Time { return now }

	rows, err := job.Run(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 7, rows)
	require.Equal(t, 1, repo.called)
	require.True(t, repo.lastCutoff.Equal(now.Add(-defaultOutboxRetentionDays*24*time.Hour)))
	require.Equal(t, defaultOutboxMaxAttempts, repo.minAttempts)
	require.Equal(t, JobOutboxRetention, job.Name())
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      quietLogger(),
		DB:          passthroughTx{},
		Repository:  repo,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	_, err = job.Run(context.Background())
	require.ErrorContains(t, err, "outbox-retention: boom")
	require.Equal(t, 3, repo.minAttempts)
}

func TestJobConstructorsRequireDependencies(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: quietLogger(), DB: passthroughTx{}})
	require.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{DB: passthroughTx{}, Repository: &fakeOutboxRetentionRepo{}})
	require.Error(t, err)
}
