package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mutationReq(owner uint64, public bool, priority Priority) AdmissionRequest {
	return AdmissionRequest{
		TelescopeID: 1,
		OwnerID:     owner,
		Start:       at(1),
		End:         at(2),
		Public:      public,
		Priority:    priority,
		Variant:     PointVariant(SkyCoordinate{RAHours: 5, Declination: 10}),
	}
}

func TestMutationTablePublicStandard(t *testing.T) {
	e, _ := newTestEngine()

	d := e.AuthorizeMutation(Caller(1, RoleGuest), mutationReq(1, true, PriorityStandard))
	assert.True(t, d.Allowed, "baseline role suffices for a public standard booking")
}

func TestMutationTablePrivateStandard(t *testing.T) {
	e, _ := newTestEngine()

	d := e.AuthorizeMutation(Caller(1, RoleGuest), mutationReq(1, false, PriorityStandard))
	require.False(t, d.Allowed)
	assert.False(t, d.NotFound)
	assert.Equal(t, []Role{RoleResearcher, RoleAdmin}, d.Missing)

	d = e.AuthorizeMutation(Caller(1, RoleResearcher), mutationReq(1, false, PriorityStandard))
	assert.True(t, d.Allowed)
}

func TestMutationTableManualPriority(t *testing.T) {
	e, _ := newTestEngine()

	for _, public := range []bool{true, false} {
		d := e.AuthorizeMutation(Caller(1, RoleResearcher), mutationReq(1, public, PriorityManual))
		require.False(t, d.Allowed)
		assert.Equal(t, []Role{RoleAdmin}, d.Missing)

		d = e.AuthorizeMutation(Caller(1, RoleAdmin), mutationReq(1, public, PriorityManual))
		assert.True(t, d.Allowed)
	}
}

func TestMutationRequiresOwnershipOrAdmin(t *testing.T) {
	e, _ := newTestEngine()

	// Acting on someone else's behalf requires admin.
	d := e.AuthorizeMutation(Caller(2, RoleResearcher), mutationReq(1, true, PriorityStandard))
	require.False(t, d.Allowed)
	assert.Equal(t, []Role{RoleAdmin}, d.Missing)

	d = e.AuthorizeMutation(Caller(2, RoleAdmin), mutationReq(1, true, PriorityStandard))
	assert.True(t, d.Allowed)
}

func TestMutationAnonymousDenied(t *testing.T) {
	e, _ := newTestEngine()

	d := e.AuthorizeMutation(AnonymousCaller(), mutationReq(1, true, PriorityStandard))
	require.False(t, d.Allowed)
	assert.NotEmpty(t, d.Missing)
}

func TestAuthorizeTargetNotFoundBeforeRoles(t *testing.T) {
	e, _ := newTestEngine()

	// Even a caller with no useful roles gets the not-found outcome, not
	// a forbidden one: the target check runs first.
	_, d, err := e.AuthorizeTarget(context.Background(), AnonymousCaller(), 42)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.True(t, d.NotFound)
	assert.Empty(t, d.Missing)

	errs := d.ErrorSet()
	require.NotNil(t, errs)
	assert.Equal(t, KindNotFound, errs.Kind)
}

func TestCanViewRules(t *testing.T) {
	e, m := newTestEngine()

	private := liveReservation(1, 1, 1, 2)
	private.Public = false
	id := m.addReservation(private)
	stored, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)

	// Owner reads their own private reservation.
	d, err := e.CanView(context.Background(), Caller(1, RoleGuest), stored)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// A stranger does not.
	d, err = e.CanView(context.Background(), Caller(2, RoleMember), stored)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.Equal(t, []Role{RoleAdmin}, d.Missing)

	// Unless a sharing grant exists.
	m.grantShare(id, 2)
	d, err = e.CanView(context.Background(), Caller(2, RoleMember), stored)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Public reservations are readable by anyone, even anonymously.
	public := liveReservation(1, 1, 3, 4)
	pubID := m.addReservation(public)
	pubStored, err := m.GetByID(context.Background(), pubID)
	require.NoError(t, err)
	d, err = e.CanView(context.Background(), AnonymousCaller(), pubStored)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
