package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func durPtr(d time.Duration) *time.Duration { return &d }

func TestQuotaExplicitCap(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, RoleMember, durPtr(5*time.Hour))
	// 4h30m already committed.
	m.addReservation(liveReservation(1, 1, 1, 5.5))

	// 45 minutes would overflow the 5h cap.
	errs, err := e.checkQuota(context.Background(), 1, 45*time.Minute, nil)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindQuota, errs.Kind)
	assert.Equal(t, []string{CodeAllottedTime}, errs.Codes())

	// 29 minutes fits.
	errs, err = e.checkQuota(context.Background(), 1, 29*time.Minute, nil)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestQuotaMonotonicity(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, RoleMember, durPtr(5*time.Hour))
	m.addReservation(liveReservation(1, 1, 1, 5.5))

	// If 30 minutes passes, every shorter duration passes too.
	for _, d := range []time.Duration{30 * time.Minute, 20 * time.Minute, time.Minute, 0} {
		errs, err := e.checkQuota(context.Background(), 1, d, nil)
		require.NoError(t, err)
		assert.Nil(t, errs, "duration %s should pass", d)
	}
}

func TestQuotaEditFreesOwnFootprint(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, RoleMember, durPtr(2*time.Hour))
	id := m.addReservation(liveReservation(1, 1, 1, 3)) // the full 2h budget
	editing, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)

	// Re-admitting the same 2h window over itself must pass: the current
	// footprint is freed before the proposal is added.
	errs, err := e.checkQuota(context.Background(), 1, 2*time.Hour, editing)
	require.NoError(t, err)
	assert.Nil(t, errs)

	// Without the editing exclusion the same proposal overflows.
	errs, err = e.checkQuota(context.Background(), 1, 2*time.Hour, nil)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeAllottedTime}, errs.Codes())
}

func TestQuotaTierDefaults(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, RoleGuest, nil)
	m.addUser(2, RoleMember, nil)

	// Guests are capped at the baseline allowance.
	errs, err := e.checkQuota(context.Background(), 1, GuestAllowance+time.Minute, nil)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeAllottedTime}, errs.Codes())

	errs, err = e.checkQuota(context.Background(), 1, GuestAllowance, nil)
	require.NoError(t, err)
	assert.Nil(t, errs)

	// Verified members get the elevated allowance.
	errs, err = e.checkQuota(context.Background(), 2, GuestAllowance+time.Minute, nil)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestQuotaUnresolvedTier(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, "", nil) // exists, but no recognized membership role

	errs, err := e.checkQuota(context.Background(), 1, time.Minute, nil)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindQuota, errs.Kind)
	assert.Equal(t, []string{CodeCategoryOfService}, errs.Codes())
}

func TestQuotaExplicitUncapped(t *testing.T) {
	e, m := newTestEngine()
	m.addUser(1, RoleGuest, durPtr(0)) // explicit cap record, no positive value

	errs, err := e.checkQuota(context.Background(), 1, 1000*time.Hour, nil)
	require.NoError(t, err)
	assert.Nil(t, errs)
}
