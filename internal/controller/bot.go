package controller

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/controller/handlers"
	"github.com/Freeeeeet/appointment_bot/internal/controller/state"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services сервисы, которыми пользуется бот
type Services struct {
	Identity *service.IdentityService
	Users    *service.UserService
	Schedule *service.ScheduleService
	Booking  *service.BookingService
	Messages *service.MessageService
	Audit    *service.AuditService
}

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, services Services, logger *zap.Logger) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager()

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		services.Identity,
		services.Users,
		services.Schedule,
		services.Booking,
		services.Messages,
		services.Audit,
		stateManager,
		botInstance,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует обработчики и меню команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Все текстовые сообщения идут через один роутер: команды с общим префиксом
	// (/approve и /approvestudent) разбираются по первому слову
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallback)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "login", Description: "🔑 Войти по email"},
		{Command: "teachers", Description: "👨‍🏫 Найти преподавателя"},
		{Command: "schedules", Description: "🗓 Окна приёма"},
		{Command: "mybookings", Description: "📅 Мои записи"},
		{Command: "pending", Description: "⏳ Заявки (преподаватель)"},
		{Command: "inbox", Description: "📬 Сообщения"},
		{Command: "cancel", Description: "🚫 Отменить текущий диалог"},
		{Command: "logout", Description: "👋 Выйти"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены контекста
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
