package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/controller/state"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender методы Bot API, которыми пользуются обработчики. *bot.Bot его реализует
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

var _ Sender = (*bot.Bot)(nil)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	identityService *service.IdentityService
	userService     *service.UserService
	scheduleService *service.ScheduleService
	bookingService  *service.BookingService
	messageService  *service.MessageService
	auditService    *service.AuditService
	stateManager    *state.Manager
	sender          Sender
	logger          *zap.Logger
	now             func() time.Time

	commands map[string]commandFunc
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	identityService *service.IdentityService,
	userService *service.UserService,
	scheduleService *service.ScheduleService,
	bookingService *service.BookingService,
	messageService *service.MessageService,
	auditService *service.AuditService,
	stateManager *state.Manager,
	sender Sender,
	logger *zap.Logger,
) *Handlers {
	h := &Handlers{
		identityService: identityService,
		userService:     userService,
		scheduleService: scheduleService,
		bookingService:  bookingService,
		messageService:  messageService,
		auditService:    auditService,
		stateManager:    stateManager,
		sender:          sender,
		logger:          logger,
		now:             time.Now,
	}
	h.commands = h.routes()
	return h
}

// command разобранная команда: /book t1 2026-03-02 09:00 -> name "book", args [t1 2026-03-02 09:00]
type command struct {
	name string
	args []string
	tail string // текст после имени команды без изменений

	messageID int
}

// arg возвращает i-й аргумент или пустую строку
func (c command) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// rest склеивает аргументы начиная с i-го
func (c command) rest(i int) string {
	if i >= len(c.args) {
		return ""
	}
	tail := c.tail
	for j := 0; j < i; j++ {
		tail = trimFirstField(tail)
	}
	return tail
}
