package state

import (
	"sync"

	"github.com/Freeeeeet/appointment_bot/internal/model"
)

// Manager хранит сессии чатов в памяти
type Manager struct {
	mu    sync.RWMutex
	chats map[int64]*ChatData // chatID -> ChatData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		chats: make(map[int64]*ChatData),
	}
}

func (sm *Manager) chat(chatID int64) *ChatData {
	data, exists := sm.chats[chatID]
	if !exists {
		data = &ChatData{Data: make(map[string]string)}
		sm.chats[chatID] = data
	}
	return data
}

// Principal пользователь, вошедший в чате; nil если не входил
func (sm *Manager) Principal(chatID int64) *model.Principal {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if data, exists := sm.chats[chatID]; exists {
		return data.Principal
	}
	return nil
}

// SetPrincipal запоминает вошедшего пользователя
func (sm *Manager) SetPrincipal(chatID int64, principal *model.Principal) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.chat(chatID).Principal = principal
}

// GetState получает текущее состояние диалога
func (sm *Manager) GetState(chatID int64) ChatState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if data, exists := sm.chats[chatID]; exists {
		return data.State
	}
	return StateNone
}

// SetState устанавливает состояние диалога
func (sm *Manager) SetState(chatID int64, state ChatState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.chat(chatID).State = state
}

// GetData получает временные данные диалога
func (sm *Manager) GetData(chatID int64, key string) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if data, exists := sm.chats[chatID]; exists {
		value, ok := data.Data[key]
		return value, ok
	}
	return "", false
}

// SetData устанавливает временные данные диалога
func (sm *Manager) SetData(chatID int64, key, value string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.chat(chatID).Data[key] = value
}

// ClearState сбрасывает диалог, вход сохраняется
func (sm *Manager) ClearState(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if data, exists := sm.chats[chatID]; exists {
		data.State = StateNone
		data.Data = make(map[string]string)
	}
}

// Forget удаляет сессию чата целиком (выход)
func (sm *Manager) Forget(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.chats, chatID)
}
