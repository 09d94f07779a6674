package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_MondayScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.mondayWindow(t)

	slots, err := f.schedules.Slots(ctx, f.student, w.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []model.SlotAvailability{{Time: "09:00"}, {Time: "10:00"}}, slots)

	first, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "10:00", Message: "lab 3"})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusPending, first.Status)
	assert.Equal(t, "Alice", first.StudentName)

	_, err = f.bookings.Reserve(ctx, f.student2, ReserveRequest{TeacherID: "t1", Date: monday, Time: "10:00"})
	require.ErrorIs(t, err, model.ErrSlotAlreadyBooked)
	assert.True(t, model.IsUserFacing(err))

	slots, err = f.schedules.Slots(ctx, f.student2, w.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []model.SlotAvailability{{Time: "09:00"}, {Time: "10:00", Booked: true}}, slots)

	assert.Len(t, f.notifier.to("t1"), 1)
	assert.Contains(t, f.auditStore.actions(), "Appointment booked with teacher: t1 at 2026-03-02 10:00")
}

func TestReserve_ConcurrentClientsOneWinner(t *testing.T) {
	f := newFixture(t)
	f.mondayWindow(t)
	f.reservations.latency = 5 * time.Millisecond

	const clients = 16
	for i := 0; i < clients; i++ {
		u := &model.User{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Client %d", i), Role: model.RoleStudent, Approved: true}
		f.users.users[u.ID] = u
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			principal := &model.Principal{UserID: fmt.Sprintf("c%d", i), Role: model.RoleStudent}
			_, err := f.bookings.Reserve(context.Background(), principal, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrSlotAlreadyBooked):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, clients-1, conflicts)

	active, err := f.reservations.FindActiveBySlot(context.Background(), model.SlotKey{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReserve_Validation(t *testing.T) {
	f := newFixture(t)
	f.mondayWindow(t)
	f.users.users["pending"] = &model.User{ID: "pending", Name: "Pat", Role: model.RoleStudent}

	tests := []struct {
		name      string
		principal *model.Principal
		req       ReserveRequest
		wantErr   error
	}{
		{name: "anonymous", principal: nil, req: ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"}, wantErr: model.ErrUnauthenticated},
		{name: "teacher cannot book", principal: f.teacher, req: ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"}, wantErr: model.ErrPermissionDenied},
		{name: "unapproved student", principal: &model.Principal{UserID: "pending", Role: model.RoleStudent}, req: ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"}, wantErr: model.ErrAccountPendingApproval},
		{name: "bad date", principal: f.student, req: ReserveRequest{TeacherID: "t1", Date: "02/03/2026", Time: "09:00"}, wantErr: model.ErrInvalidInput},
		{name: "bad time", principal: f.student, req: ReserveRequest{TeacherID: "t1", Date: monday, Time: "9am"}, wantErr: model.ErrInvalidInput},
		{name: "unknown teacher", principal: f.student, req: ReserveRequest{TeacherID: "nobody", Date: monday, Time: "09:00"}, wantErr: model.ErrNotFound},
		{name: "student is not a teacher", principal: f.student, req: ReserveRequest{TeacherID: "s2", Date: monday, Time: "09:00"}, wantErr: model.ErrNotFound},
		{name: "time outside derived slots", principal: f.student, req: ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:30"}, wantErr: model.ErrSlotNotOffered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Reserve(context.Background(), tt.principal, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.reservations.reservations)
}

func TestReserve_DayWithoutWindowsAcceptsAnyTime(t *testing.T) {
	f := newFixture(t)
	f.mondayWindow(t)

	// 3 марта 2026 вторник, окон нет
	r, err := f.bookings.Reserve(context.Background(), f.student, ReserveRequest{TeacherID: "t1", Date: "2026-03-03", Time: "14:45"})
	require.NoError(t, err)
	assert.Equal(t, "14:45", r.Time)
}

func TestReserve_InactiveWindowDoesNotRestrict(t *testing.T) {
	f := newFixture(t)
	w := f.mondayWindow(t)
	_, err := f.schedules.SetActive(context.Background(), f.teacher, w.ID, false)
	require.NoError(t, err)

	_, err = f.bookings.Reserve(context.Background(), f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:30"})
	require.NoError(t, err)
}

func TestReserve_AfterRejectSlotIsFreeAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)

	r, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
	_, err = f.bookings.Reject(ctx, f.teacher, r.ID)
	require.NoError(t, err)

	_, err = f.bookings.Reserve(ctx, f.student2, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
}

func TestTransitions_RejectThenApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)

	r, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)

	rejected, err := f.bookings.Reject(ctx, f.teacher, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedBy)
	assert.Equal(t, "t1", *rejected.RejectedBy)
	assert.NotNil(t, rejected.RejectedAt)

	_, err = f.bookings.Approve(ctx, f.teacher, r.ID)
	require.ErrorIs(t, err, model.ErrInvalidStateTransition)

	stored, err := f.reservations.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusRejected, stored.Status)
	assert.Nil(t, stored.ApprovedBy)

	assert.Len(t, f.notifier.to("s1"), 1)
}

func TestTransitions_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)
	f.users.users["t2"] = &model.User{ID: "t2", Name: "Dr. Jones", Role: model.RoleTeacher, Approved: true}
	otherTeacher := &model.Principal{UserID: "t2", Role: model.RoleTeacher}

	r, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)

	_, err = f.bookings.Approve(ctx, otherTeacher, r.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.bookings.Approve(ctx, f.student, r.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.bookings.Cancel(ctx, f.student2, r.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.bookings.Cancel(ctx, f.teacher, r.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.bookings.Approve(ctx, f.teacher, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)

	cancelled, err := f.bookings.Cancel(ctx, f.student, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, "s1", *cancelled.CancelledBy)
	assert.Contains(t, f.auditStore.actions(), fmt.Sprintf("Appointment %s cancelled by student", r.ID))
}

func TestTransitions_ConcurrentDecisionsOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)

	r, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
	f.reservations.latency = 5 * time.Millisecond

	errs := make(chan error, 2)
	go func() {
		_, err := f.bookings.Approve(ctx, f.teacher, r.ID)
		errs <- err
	}()
	go func() {
		_, err := f.bookings.Cancel(ctx, f.student, r.ID)
		errs <- err
	}()

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, model.ErrInvalidStateTransition)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)

	r1, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
	_, err = f.bookings.Reserve(ctx, f.student2, ReserveRequest{TeacherID: "t1", Date: monday, Time: "10:00"})
	require.NoError(t, err)
	_, err = f.bookings.Approve(ctx, f.teacher, r1.ID)
	require.NoError(t, err)

	mine, err := f.bookings.StudentReservations(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.ReservationStatusApproved, mine[0].Status)

	agenda, err := f.bookings.TeacherReservations(ctx, f.teacher)
	require.NoError(t, err)
	assert.Len(t, agenda.Pending, 1)
	assert.Len(t, agenda.Decided, 1)

	pending, err := f.bookings.PendingForTeacher(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "s2", pending[0].StudentID)

	_, err = f.bookings.StudentReservations(ctx, f.teacher)
	require.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestSendPendingDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mondayWindow(t)

	_, err := f.bookings.Reserve(ctx, f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
	_, err = f.bookings.Reserve(ctx, f.student2, ReserveRequest{TeacherID: "t1", Date: monday, Time: "10:00"})
	require.NoError(t, err)

	f.notifier.sent = nil
	sent, err := f.bookings.SendPendingDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	texts := f.notifier.to("t1")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "ожидающих решения: 2")
	assert.Contains(t, texts[0], "Alice")
	assert.Contains(t, texts[0], "Bob")
}

func TestReserve_NotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.mondayWindow(t)
	f.notifier.err = errors.New("telegram unavailable")

	_, err := f.bookings.Reserve(context.Background(), f.student, ReserveRequest{TeacherID: "t1", Date: monday, Time: "09:00"})
	require.NoError(t, err)
}
