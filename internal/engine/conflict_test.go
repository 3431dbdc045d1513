package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveReservation(telescope, owner uint64, startH, endH float64) Reservation {
	return Reservation{
		TelescopeID: telescope,
		OwnerID:     owner,
		Start:       at(startH),
		End:         at(endH),
		Public:      true,
		Priority:    PriorityStandard,
		Status:      StatusScheduled,
		Variant:     DriftScanVariant(Orientation{Azimuth: 180, Elevation: 45}),
	}
}

func TestCreateConflictDetectsOverlap(t *testing.T) {
	e, m := newTestEngine()
	m.addReservation(liveReservation(1, 1, 10, 11))

	cases := []struct {
		name         string
		startH, endH float64
		want         bool
	}{
		{"inside", 10.5, 10.75, true},
		{"covering", 9, 12, true},
		{"leading edge", 9.5, 10.5, true},
		{"trailing edge", 10.5, 11.5, true},
		{"touching end is free", 11, 12, false},
		{"touching start is free", 9, 10, false},
		{"disjoint", 13, 14, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.hasCreateConflict(context.Background(), 1, at(tc.startH), at(tc.endH))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConflictIsSymmetric(t *testing.T) {
	e, m := newTestEngine()
	id := m.addReservation(liveReservation(1, 1, 10, 12))

	// A overlaps B iff B overlaps A: re-run the check with the stored and
	// probed windows swapped.
	probe := liveReservation(1, 1, 11, 13)
	ab, err := e.hasCreateConflict(context.Background(), 1, probe.Start, probe.End)
	require.NoError(t, err)

	delete(m.store, id)
	m.addReservation(probe)
	ba, err := e.hasCreateConflict(context.Background(), 1, at(10), at(12))
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.True(t, ab)
}

func TestConflictIgnoresOtherTelescopes(t *testing.T) {
	e, m := newTestEngine()
	m.addReservation(liveReservation(2, 1, 10, 11))

	got, err := e.hasCreateConflict(context.Background(), 1, at(10), at(11))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestConflictIgnoresDeadReservations(t *testing.T) {
	e, m := newTestEngine()
	r := liveReservation(1, 1, 10, 11)
	r.Status = StatusCancelled
	m.addReservation(r)

	got, err := e.hasCreateConflict(context.Background(), 1, at(10), at(11))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUpdateConflictExcludesSelf(t *testing.T) {
	e, m := newTestEngine()
	id := m.addReservation(liveReservation(1, 1, 10, 11))

	// Same window as the stored record: the only match is the record
	// being edited, so no conflict.
	got, err := e.hasUpdateConflict(context.Background(), 1, at(10), at(11), id)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUpdateConflictAgainstOthers(t *testing.T) {
	e, m := newTestEngine()
	id := m.addReservation(liveReservation(1, 1, 10, 11))
	m.addReservation(liveReservation(1, 2, 11, 12))

	// Extending into the neighbour's slot conflicts even though the
	// edited record itself matches too.
	got, err := e.hasUpdateConflict(context.Background(), 1, at(10), at(11.5), id)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestUpdateConflictDoubleMatchShortCircuit(t *testing.T) {
	e, m := newTestEngine()
	m.addReservation(liveReservation(1, 1, 10, 11))
	m.addReservation(liveReservation(1, 2, 11, 12))

	// Two raw matches trip the count check before self-exclusion, even
	// with an exclude id that matches neither record.
	got, err := e.hasUpdateConflict(context.Background(), 1, at(10.5), at(11.5), 999)
	require.NoError(t, err)
	assert.True(t, got)
}
