package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedWorld provisions a telescope, a visible catalog body and a member
// user with a generous explicit cap.
func seedWorld(m *memStores) {
	m.telescopes[1] = true
	m.bodies[7] = true
	m.addUser(1, RoleMember, durPtr(100*time.Hour))
}

func pointReq(owner uint64, startH, endH float64) AdmissionRequest {
	return AdmissionRequest{
		TelescopeID: 1,
		OwnerID:     owner,
		Start:       at(startH),
		End:         at(endH),
		Public:      true,
		Priority:    PriorityStandard,
		Variant:     PointVariant(SkyCoordinate{RAHours: 12, RAMinutes: 30, Declination: -20}),
	}
}

func TestRequestHappyPath(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	id, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)
	require.NotZero(t, id)

	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, stored.Status)
	assert.Equal(t, VariantPoint, stored.Variant.Kind)
}

func TestCreateIsPrivilegedAndSchedules(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	_, errs, err := e.Create(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindAuthorization, errs.Kind)

	m.addUser(2, RoleResearcher, durPtr(100*time.Hour))
	id, errs, err := e.Create(context.Background(), Caller(2, RoleResearcher), pointReq(2, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)
	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, stored.Status)
}

func TestAdmissionReferentialFailuresReturnAlone(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	// Unknown owner: a single referential entry, even though the window
	// below is also malformed.
	req := pointReq(99, 2, 1)
	_, errs, err := e.Request(context.Background(), Caller(99, RoleMember, RoleAdmin), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindReferential, errs.Kind)
	require.Len(t, errs.Entries, 1)
	assert.Equal(t, "owner_id", errs.Entries[0].Field)

	// Unknown telescope.
	req = pointReq(1, 1, 2)
	req.TelescopeID = 99
	_, errs, err = e.Request(context.Background(), Caller(1, RoleMember), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, "telescope_id", errs.Entries[0].Field)

	// Unknown or hidden celestial body.
	req = pointReq(1, 1, 2)
	req.Variant = BodyVariant(404)
	_, errs, err = e.Request(context.Background(), Caller(1, RoleMember), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, "body_id", errs.Entries[0].Field)

	m.bodies[8] = false // exists but hidden
	req.Variant = BodyVariant(8)
	_, errs, err = e.Request(context.Background(), Caller(1, RoleMember), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindReferential, errs.Kind)
}

func TestAdmissionAccumulatesFieldErrors(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	req := AdmissionRequest{
		TelescopeID: 1,
		OwnerID:     1,
		Start:       at(-1), // in the past
		End:         at(-2), // and before start
		Public:      true,
		Priority:    PriorityStandard,
		Variant: PointVariant(SkyCoordinate{
			RAHours:     24,  // out of range
			RAMinutes:   60,  // out of range
			Declination: 95,  // out of range
		}),
	}
	_, errs, err := e.Request(context.Background(), Caller(1, RoleMember), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindField, errs.Kind)
	assert.ElementsMatch(t, []string{
		CodeTimeOrder, CodeStartInPast,
		CodeOutOfRange, CodeOutOfRange, CodeOutOfRange,
	}, errs.Codes())
}

func TestAdmissionRasterCoordinateCount(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	req := pointReq(1, 1, 2)
	req.Variant = RasterScanVariant([]SkyCoordinate{{RAHours: 1}})
	_, errs, err := e.Request(context.Background(), Caller(1, RoleMember), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{CodeCoordinateCount}, errs.Codes())
}

func TestAdmissionConflictScenario(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)
	m.addUser(2, RoleMember, durPtr(100*time.Hour))

	// Live reservation [10:00,11:00) on the telescope.
	_, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 10, 11))
	require.NoError(t, err)
	require.Nil(t, errs)

	// [10:30,10:45) collides.
	_, errs, err = e.Request(context.Background(), Caller(2, RoleMember), pointReq(2, 10.5, 10.75))
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindConflict, errs.Kind)
	assert.Equal(t, []string{CodeWindowConflict}, errs.Codes())

	// [11:00,12:00) touches the boundary of the half-open window: free.
	_, errs, err = e.Request(context.Background(), Caller(2, RoleMember), pointReq(2, 11, 12))
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestAdmissionIdempotentRejection(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	bad := pointReq(1, 2, 1)
	_, first, err := e.Request(context.Background(), Caller(1, RoleMember), bad)
	require.NoError(t, err)
	require.NotNil(t, first)
	before := len(m.store)

	_, second, err := e.Request(context.Background(), Caller(1, RoleMember), bad)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Codes(), second.Codes())
	assert.Equal(t, before, len(m.store), "a rejected request must not mutate the store")
}

func TestUpdateInPlaceSameVariant(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	id, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)

	upd := pointReq(1, 3, 4)
	newID, errs, err := e.Update(context.Background(), Caller(1, RoleMember), id, upd)
	require.NoError(t, err)
	require.Nil(t, errs)
	assert.Equal(t, id, newID, "same-tag update keeps the record id")

	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, at(3), stored.Start)
	assert.Equal(t, StatusRequested, stored.Status)
}

func TestUpdateVariantChangePreservesIdentity(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	id, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)
	require.NoError(t, m.UpdateStatus(context.Background(), id, StatusScheduled))

	upd := pointReq(1, 1, 2)
	upd.Variant = DriftScanVariant(Orientation{Azimuth: 90, Elevation: 30})
	newID, errs, err := e.Update(context.Background(), Caller(1, RoleMember), id, upd)
	require.NoError(t, err)
	require.Nil(t, errs)
	assert.NotEqual(t, id, newID, "tag change replaces the record")

	_, err = m.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound, "old record and payload are destroyed")

	stored, err := m.GetByID(context.Background(), newID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.OwnerID, "owner survives the variant change")
	assert.Equal(t, StatusScheduled, stored.Status, "status survives the variant change")
	assert.Equal(t, VariantDriftScan, stored.Variant.Kind)
	assert.Empty(t, stored.Variant.Coordinates)
	require.NotNil(t, stored.Variant.Orientation)
}

func TestUpdateUnknownTarget(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	// Not-found wins regardless of the caller's roles.
	_, errs, err := e.Update(context.Background(), Caller(1, RoleAdmin), 404, pointReq(1, 1, 2))
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindNotFound, errs.Kind)
}

func TestUpdateRelaxedStartCheck(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)

	id, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)

	// Update may move the window to start exactly now; create may not.
	upd := pointReq(1, 0, 1)
	_, errs, err = e.Update(context.Background(), Caller(1, RoleMember), id, upd)
	require.NoError(t, err)
	assert.Nil(t, errs)

	_, errs, err = e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 0, 0.5))
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Contains(t, errs.Codes(), CodeStartInPast)
}

func TestAuthorizationScenario(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)
	m.addUser(3, RoleGuest, nil)

	// Public, standard-priority request by the baseline owner: allowed.
	req := pointReq(3, 1, 2)
	_, errs, err := e.Request(context.Background(), Caller(3, RoleGuest), req)
	require.NoError(t, err)
	assert.Nil(t, errs)

	// Same shape but private: requires the elevated tier and names it.
	req = pointReq(3, 3, 4)
	req.Public = false
	_, errs, err = e.Request(context.Background(), Caller(3, RoleGuest), req)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, KindAuthorization, errs.Kind)
	assert.Contains(t, errs.Entries[0].Message, string(RoleResearcher))
}

func TestAuditEventsEmitted(t *testing.T) {
	e, m := newTestEngine()
	seedWorld(m)
	e.Audit = memAudit{m}

	id, errs, err := e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.Nil(t, errs)

	_, errs, err = e.Request(context.Background(), Caller(1, RoleMember), pointReq(1, 1, 2))
	require.NoError(t, err)
	require.NotNil(t, errs)

	require.Len(t, m.events, 2)
	assert.Equal(t, "admitted", m.events[0].Outcome)
	assert.Equal(t, id, m.events[0].ReservationID)
	assert.Equal(t, "rejected", m.events[1].Outcome)
	assert.Equal(t, []string{CodeWindowConflict}, m.events[1].ErrorCodes)
}
