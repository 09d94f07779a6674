package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/availability"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zaptest"
)

// Фейковые хранилища в памяти. Условная вставка и условный переход выполняются
// под мьютексом, как их выполняет Postgres

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) get(match func(*model.User) bool) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return f.get(func(u *model.User) bool { return u.ID == id }), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.get(func(u *model.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (f *fakeUsers) GetByTelegramChatID(_ context.Context, chatID int64) (*model.User, error) {
	return f.get(func(u *model.User) bool { return u.TelegramChatID != nil && *u.TelegramChatID == chatID }), nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role model.Role, onlyApproved bool) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.User
	for _, u := range f.users {
		if u.Role == role && (!onlyApproved || u.Approved) {
			cp := *u
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeUsers) ListPendingApproval(_ context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.User
	for _, u := range f.users {
		if !u.Approved {
			cp := *u
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeUsers) SetApproved(_ context.Context, id string, approved bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if ok {
		u.Approved = approved
	}
	return ok, nil
}

func (f *fakeUsers) DeleteWithRole(_ context.Context, id string, role model.Role) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Role != role {
		return false, nil
	}
	delete(f.users, id)
	return true, nil
}

func (f *fakeUsers) LinkTelegramChat(_ context.Context, id string, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			u.TelegramChatID = nil
		}
	}
	if u, ok := f.users[id]; ok {
		u.TelegramChatID = &chatID
	}
	return nil
}

func (f *fakeUsers) UnlinkTelegramChat(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			u.TelegramChatID = nil
		}
	}
	return nil
}

type fakeWindows struct {
	mu      sync.Mutex
	windows []*model.ScheduleWindow
}

func (f *fakeWindows) Create(_ context.Context, window *model.ScheduleWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	window.CreatedAt = time.Now()
	cp := *window
	f.windows = append(f.windows, &cp)
	return nil
}

func (f *fakeWindows) filter(match func(*model.ScheduleWindow) bool) []*model.ScheduleWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.ScheduleWindow
	for _, w := range f.windows {
		if match(w) {
			cp := *w
			result = append(result, &cp)
		}
	}
	return result
}

func (f *fakeWindows) GetByID(_ context.Context, id string) (*model.ScheduleWindow, error) {
	found := f.filter(func(w *model.ScheduleWindow) bool { return w.ID == id })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (f *fakeWindows) GetByTeacherID(_ context.Context, teacherID string) ([]*model.ScheduleWindow, error) {
	return f.filter(func(w *model.ScheduleWindow) bool { return w.TeacherID == teacherID }), nil
}

func (f *fakeWindows) GetActiveByTeacherAndDay(_ context.Context, teacherID string, day model.Weekday) ([]*model.ScheduleWindow, error) {
	return f.filter(func(w *model.ScheduleWindow) bool {
		return w.TeacherID == teacherID && w.Day == day && w.Active
	}), nil
}

func (f *fakeWindows) GetActive(_ context.Context) ([]*model.ScheduleWindow, error) {
	return f.filter(func(w *model.ScheduleWindow) bool { return w.Active }), nil
}

func (f *fakeWindows) GetAll(_ context.Context) ([]*model.ScheduleWindow, error) {
	return f.filter(func(*model.ScheduleWindow) bool { return true }), nil
}

func (f *fakeWindows) SetActive(_ context.Context, id string, active bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.windows {
		if w.ID == id {
			w.Active = active
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWindows) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.windows {
		if w.ID == id {
			f.windows = append(f.windows[:i], f.windows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeReservations struct {
	mu           sync.Mutex
	reservations []*model.Reservation
	latency      time.Duration // задержка перед каждой операцией, чтобы проявить гонки
}

func (f *fakeReservations) sleep() {
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
}

func (f *fakeReservations) CreateIfSlotFree(_ context.Context, reservation *model.Reservation) error {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	key := reservation.SlotKey()
	for _, r := range f.reservations {
		if r.SlotKey() == key && r.Status.IsActive() {
			return model.ErrSlotAlreadyBooked
		}
	}
	reservation.CreatedAt = time.Now()
	reservation.UpdatedAt = reservation.CreatedAt
	cp := *reservation
	f.reservations = append(f.reservations, &cp)
	return nil
}

func (f *fakeReservations) filter(match func(*model.Reservation) bool) []*model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.Reservation
	for i := len(f.reservations) - 1; i >= 0; i-- {
		if r := f.reservations[i]; match(r) {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result
}

func (f *fakeReservations) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	found := f.filter(func(r *model.Reservation) bool { return r.ID == id })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (f *fakeReservations) FindActiveBySlot(_ context.Context, key model.SlotKey) ([]*model.Reservation, error) {
	f.sleep()
	return f.filter(func(r *model.Reservation) bool { return r.SlotKey() == key && r.Status.IsActive() }), nil
}

func (f *fakeReservations) ListActiveByTeacherAndDate(_ context.Context, teacherID, date string) ([]*model.Reservation, error) {
	return f.filter(func(r *model.Reservation) bool {
		return r.TeacherID == teacherID && r.Date == date && r.Status.IsActive()
	}), nil
}

func (f *fakeReservations) ListByStudent(_ context.Context, studentID string) ([]*model.Reservation, error) {
	return f.filter(func(r *model.Reservation) bool { return r.StudentID == studentID }), nil
}

func (f *fakeReservations) ListByTeacher(_ context.Context, teacherID string) ([]*model.Reservation, error) {
	return f.filter(func(r *model.Reservation) bool { return r.TeacherID == teacherID }), nil
}

func (f *fakeReservations) ListPending(_ context.Context) ([]*model.Reservation, error) {
	return f.filter(func(r *model.Reservation) bool { return r.Status == model.ReservationStatusPending }), nil
}

func (f *fakeReservations) TransitionFromPending(_ context.Context, change model.StatusChange) (*model.Reservation, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ID == change.ReservationID && r.Status == model.ReservationStatusPending {
			applyChange(r, change)
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

// applyChange повторяет то, что делает UPDATE в ReservationRepository.TransitionFromPending
func applyChange(r *model.Reservation, c model.StatusChange) {
	actor, at := c.ActorID, c.At
	r.Status = c.To
	r.UpdatedAt = at
	switch c.To {
	case model.ReservationStatusApproved:
		r.ApprovedBy, r.ApprovedAt = &actor, &at
	case model.ReservationStatusRejected:
		r.RejectedBy, r.RejectedAt = &actor, &at
	case model.ReservationStatusCancelled:
		r.CancelledBy, r.CancelledAt = &actor, &at
	}
}

type fakeMessages struct {
	mu       sync.Mutex
	messages []*model.Message
	clock    time.Time
}

func (f *fakeMessages) Create(_ context.Context, message *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	message.CreatedAt = f.clock
	cp := *message
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeMessages) list(match func(*model.Message) bool, limit int) []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.Message
	for i := len(f.messages) - 1; i >= 0 && len(result) < limit; i-- {
		if m := f.messages[i]; match(m) {
			cp := *m
			result = append(result, &cp)
		}
	}
	return result
}

func (f *fakeMessages) ListSent(_ context.Context, userID string, limit int) ([]*model.Message, error) {
	return f.list(func(m *model.Message) bool { return m.FromID == userID }, limit), nil
}

func (f *fakeMessages) ListReceived(_ context.Context, userID string, limit int) ([]*model.Message, error) {
	return f.list(func(m *model.Message) bool { return m.ToID == userID }, limit), nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
	err     error
}

func (f *fakeAudit) Append(_ context.Context, entry *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeAudit) ListRecent(_ context.Context, limit int) ([]*model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.AuditEntry
	for i := len(f.entries) - 1; i >= 0 && len(result) < limit; i-- {
		cp := *f.entries[i]
		result = append(result, &cp)
	}
	return result, nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

type sentNotification struct {
	UserID string
	Text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, recipient *model.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{UserID: recipient.ID, Text: text})
	return nil
}

func (n *recordingNotifier) to(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var texts []string
	for _, s := range n.sent {
		if s.UserID == userID {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

var errStoreDown = errors.New("store down")

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// fixture набор сервисов поверх фейков с одним учителем и двумя студентами
type fixture struct {
	users        *fakeUsers
	windows      *fakeWindows
	reservations *fakeReservations
	messages     *fakeMessages
	auditStore   *fakeAudit
	notifier     *recordingNotifier

	audit     *AuditService
	bookings  *BookingService
	schedules *ScheduleService
	directory *UserService
	inbox     *MessageService

	teacher, student, student2, admin *model.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	teacher := &model.User{ID: "t1", Email: "smith@uni.edu", Name: "Dr. Smith", Role: model.RoleTeacher, Approved: true, Department: "Physics", Subject: "Mechanics"}
	student := &model.User{ID: "s1", Email: "alice@uni.edu", Name: "Alice", Role: model.RoleStudent, Approved: true}
	student2 := &model.User{ID: "s2", Email: "bob@uni.edu", Name: "Bob", Role: model.RoleStudent, Approved: true}
	admin := &model.User{ID: "a1", Email: "root@uni.edu", Name: "Root", Role: model.RoleAdmin, Approved: true}

	f := &fixture{
		users:        newFakeUsers(teacher, student, student2, admin),
		windows:      &fakeWindows{},
		reservations: &fakeReservations{},
		messages:     &fakeMessages{clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		auditStore:   &fakeAudit{},
		notifier:     &recordingNotifier{},
		teacher:      model.PrincipalOf(teacher),
		student:      model.PrincipalOf(student),
		student2:     model.PrincipalOf(student2),
		admin:        model.PrincipalOf(admin),
	}

	f.audit = NewAuditService(f.auditStore, logger)
	f.bookings = NewBookingService(f.users, f.windows, f.reservations, f.notifier, f.audit, availability.PolicyStartInWindow, logger)
	f.schedules = NewScheduleService(f.windows, f.users, f.reservations, f.audit, availability.PolicyStartInWindow, logger)
	f.directory = NewUserService(f.users, f.audit, newValidator(), logger)
	f.inbox = NewMessageService(f.messages, f.users, f.notifier, f.audit, logger)
	return f
}

// mondayWindow окно учителя t1 по понедельникам 09:00-11:00 по 60 минут
func (f *fixture) mondayWindow(t *testing.T) *model.ScheduleWindow {
	t.Helper()
	w, err := f.schedules.CreateWindow(context.Background(), f.teacher, CreateWindowRequest{
		Day:          "monday",
		StartTime:    "09:00",
		EndTime:      "11:00",
		SlotDuration: 60,
	})
	if err != nil {
		t.Fatalf("create monday window: %v", err)
	}
	return w
}

// 2 марта 2026 понедельник
const monday = "2026-03-02"
