package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationStatus_Transition(t *testing.T) {
	tests := []struct {
		name    string
		from    ReservationStatus
		action  ReservationAction
		want    ReservationStatus
		wantErr bool
	}{
		{name: "pending approve", from: ReservationStatusPending, action: ReservationActionApprove, want: ReservationStatusApproved},
		{name: "pending reject", from: ReservationStatusPending, action: ReservationActionReject, want: ReservationStatusRejected},
		{name: "pending cancel", from: ReservationStatusPending, action: ReservationActionCancel, want: ReservationStatusCancelled},
		{name: "approved reject", from: ReservationStatusApproved, action: ReservationActionReject, wantErr: true},
		{name: "rejected approve", from: ReservationStatusRejected, action: ReservationActionApprove, wantErr: true},
		{name: "cancelled cancel", from: ReservationStatusCancelled, action: ReservationActionCancel, wantErr: true},
		{name: "approved cancel", from: ReservationStatusApproved, action: ReservationActionCancel, wantErr: true},
		{name: "unknown action", from: ReservationStatusPending, action: "archive", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.action)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStateTransition)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReservationStatus_IsActive(t *testing.T) {
	assert.True(t, ReservationStatusPending.IsActive())
	assert.True(t, ReservationStatusApproved.IsActive())
	assert.False(t, ReservationStatusRejected.IsActive())
	assert.False(t, ReservationStatusCancelled.IsActive())
}

func TestReservationAction_ActorRole(t *testing.T) {
	assert.Equal(t, RoleTeacher, ReservationActionApprove.ActorRole())
	assert.Equal(t, RoleTeacher, ReservationActionReject.ActorRole())
	assert.Equal(t, RoleStudent, ReservationActionCancel.ActorRole())
}
