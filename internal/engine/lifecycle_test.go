package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFreeControl(m *memStores, status Status) uint64 {
	r := liveReservation(1, 1, 1, 2)
	r.Priority = PriorityManual
	r.Public = false
	r.Status = status
	r.Variant = FreeControlVariant(Orientation{Azimuth: 10, Elevation: 50})
	return m.addReservation(r)
}

func TestCancelLiveReservation(t *testing.T) {
	e, m := newTestEngine()
	id := m.addReservation(liveReservation(1, 1, 1, 2))

	errs, err := e.Cancel(context.Background(), Caller(1, RoleGuest), id)
	require.NoError(t, err)
	require.Nil(t, errs)

	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestCancelTerminalRejected(t *testing.T) {
	e, m := newTestEngine()
	r := liveReservation(1, 1, 1, 2)
	r.Status = StatusCompleted
	id := m.addReservation(r)

	errs, err := e.Cancel(context.Background(), Caller(1, RoleGuest), id)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeInvalidStatus}, errs.Codes())
}

func TestCancelUnknownTarget(t *testing.T) {
	e, _ := newTestEngine()

	errs, err := e.Cancel(context.Background(), Caller(1, RoleAdmin), 404)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindNotFound, errs.Kind)
}

func TestApproveDenyFlow(t *testing.T) {
	e, m := newTestEngine()

	r := liveReservation(1, 1, 1, 2)
	r.Status = StatusRequested
	id := m.addReservation(r)

	// Baseline roles cannot review.
	errs, err := e.Approve(context.Background(), Caller(2, RoleMember), id)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindAuthorization, errs.Kind)

	errs, err = e.Approve(context.Background(), Caller(2, RoleResearcher), id)
	require.NoError(t, err)
	require.Nil(t, errs)
	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, stored.Status)

	// A scheduled reservation can no longer be reviewed.
	errs, err = e.Deny(context.Background(), Caller(2, RoleAdmin), id)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeInvalidStatus}, errs.Codes())

	r2 := liveReservation(1, 1, 3, 4)
	r2.Status = StatusRequested
	id2 := m.addReservation(r2)
	errs, err = e.Deny(context.Background(), Caller(2, RoleAdmin), id2)
	require.NoError(t, err)
	require.Nil(t, errs)
	stored, err = m.GetByID(context.Background(), id2)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestFreeControlStartStop(t *testing.T) {
	e, m := newTestEngine()
	id := seedFreeControl(m, StatusScheduled)
	admin := Caller(1, RoleAdmin)

	errs, err := e.Start(context.Background(), admin, id)
	require.NoError(t, err)
	require.Nil(t, errs)
	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)

	// Starting twice is rejected.
	errs, err = e.Start(context.Background(), admin, id)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeInvalidStatus}, errs.Codes())

	errs, err = e.Stop(context.Background(), admin, id)
	require.NoError(t, err)
	require.Nil(t, errs)
	stored, err = m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)

	// Completed is terminal: no further stop.
	errs, err = e.Stop(context.Background(), admin, id)
	require.NoError(t, err)
	require.NotNil(t, errs)
}

func TestStartRejectsWrongVariant(t *testing.T) {
	e, m := newTestEngine()
	r := liveReservation(1, 1, 1, 2)
	r.Priority = PriorityManual
	id := m.addReservation(r) // drift-scan variant

	errs, err := e.Start(context.Background(), Caller(1, RoleAdmin), id)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeInvalidVariant}, errs.Codes())
}

func TestManualSessionDuration(t *testing.T) {
	// Sanity on the derived helpers used throughout the lifecycle.
	r := liveReservation(1, 1, 1, 2.5)
	assert.Equal(t, 90*time.Minute, r.Duration())
	assert.True(t, r.Status.Live())
	assert.False(t, r.Status.Terminal())
}
