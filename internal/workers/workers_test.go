// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── test doubles ────────────────────────────────────────────────────────────

type fakePinger struct {
	mu    sync.Mutex
	err   error
	pings int
}

func (f *fakePinger) SetToken(string) {}
func (f *fakePinger) Token() string   { return "" }

func (f *fakePinger) Submit(context.Context, models.QueuedAction) error { return nil }

func (f *fakePinger) Changes(context.Context, string, string) (models.DeltaResponse, error) {
	return models.DeltaResponse{}, nil
}

func (f *fakePinger) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.err
}

func (f *fakePinger) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakePinger) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

type fakeSyncManager struct {
	mu         sync.Mutex
	online     []bool
	syncCalls  int
	syncErr    error
	syncResult models.SyncResult
}

func (f *fakeSyncManager) Initialize(context.Context) error { return nil }

func (f *fakeSyncManager) EnqueueAction(context.Context, models.ActionType, string, string, json.RawMessage) (string, error) {
	return "", nil
}

func (f *fakeSyncManager) FlushQueue(context.Context) (models.SyncResult, error) {
	return models.SyncResult{}, nil
}

func (f *fakeSyncManager) SyncNow(context.Context) (models.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	return f.syncResult, f.syncErr
}

func (f *fakeSyncManager) DeltaSync(context.Context, string) ([]models.ChangedRecord, error) {
	return nil, nil
}

func (f *fakeSyncManager) Status(context.Context) models.SyncStatus { return models.SyncStatus{} }

func (f *fakeSyncManager) OnStatusChange(service.SyncStatusHandler) func() { return func() {} }

func (f *fakeSyncManager) SetOnline(_ context.Context, online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = append(f.online, online)
}

func (f *fakeSyncManager) NotifyForeground(context.Context) {}

func (f *fakeSyncManager) transitions() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.online))
	copy(out, f.online)
	return out
}

func (f *fakeSyncManager) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls
}

// ── connectivity probe ──────────────────────────────────────────────────────

func TestConnectivityProbeReportsTransitions(t *testing.T) {
	api := &fakePinger{}
	manager := &fakeSyncManager{}
	probe := NewConnectivityProbe(api, manager, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		probe.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return api.pingCount() >= 2
	}, time.Second, time.Millisecond)

	api.setErr(errors.New("connection refused"))
	require.Eventually(t, func() bool {
		transitions := manager.transitions()
		return len(transitions) > 0 && !transitions[len(transitions)-1]
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	transitions := manager.transitions()
	require.NotEmpty(t, transitions)
	// first probe ran before the first tick and the API was still healthy
	assert.True(t, transitions[0])
}

func TestConnectivityProbeProbesImmediately(t *testing.T) {
	api := &fakePinger{}
	manager := &fakeSyncManager{}
	// interval long enough that only the startup probe can fire
	probe := NewConnectivityProbe(api, manager, time.Hour, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		probe.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return api.pingCount() == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, []bool{true}, manager.transitions())
}

// ── periodic sync ───────────────────────────────────────────────────────────

func TestPeriodicSyncFlushesOnTick(t *testing.T) {
	manager := &fakeSyncManager{syncResult: models.SyncResult{Processed: 1, Succeeded: 1}}
	job := NewPeriodicSync(manager, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return manager.syncCount() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

// ── aggregate ───────────────────────────────────────────────────────────────

type blockingWorker struct {
	started chan struct{}
	stopped chan struct{}
}

func newBlockingWorker() *blockingWorker {
	return &blockingWorker{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (w *blockingWorker) Run(ctx context.Context) {
	close(w.started)
	<-ctx.Done()
	close(w.stopped)
}

func TestWorkersStartStop(t *testing.T) {
	first := newBlockingWorker()
	second := newBlockingWorker()
	ws := New(first, second)

	ws.Start(context.Background())
	<-first.started
	<-second.started

	ws.Stop()
	<-first.stopped
	<-second.stopped
}

func TestWorkersStopWithoutStart(t *testing.T) {
	ws := New(newBlockingWorker())
	ws.Stop()
}

func TestWorkersDoubleStart(t *testing.T) {
	worker := newBlockingWorker()
	ws := New(worker)

	ws.Start(context.Background())
	<-worker.started
	// second Start must not spawn a second run of the same worker,
	// which would panic on the closed started channel
	ws.Start(context.Background())

	ws.Stop()
	<-worker.stopped
}
