package state

import (
	"sync"
	"testing"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestManager_DialogAndSession(t *testing.T) {
	sm := NewManager()
	const chat = int64(10)

	assert.Nil(t, sm.Principal(chat))
	assert.Equal(t, StateNone, sm.GetState(chat))

	p := &model.Principal{UserID: "s1", Role: model.RoleStudent}
	sm.SetPrincipal(chat, p)
	sm.SetState(chat, StateMessageText)
	sm.SetData(chat, KeyRecipient, "t1")

	v, ok := sm.GetData(chat, KeyRecipient)
	assert.True(t, ok)
	assert.Equal(t, "t1", v)

	sm.ClearState(chat)
	assert.Equal(t, StateNone, sm.GetState(chat))
	_, ok = sm.GetData(chat, KeyRecipient)
	assert.False(t, ok)
	assert.Equal(t, p, sm.Principal(chat), "clearing a dialog keeps the login")

	sm.Forget(chat)
	assert.Nil(t, sm.Principal(chat))
}

func TestManager_ConcurrentChats(t *testing.T) {
	sm := NewManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			sm.SetState(chat, StateLoginPassword)
			sm.SetData(chat, KeyEmail, "x@uni.edu")
			sm.GetState(chat)
			sm.ClearState(chat)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, StateNone, sm.GetState(i))
	}
}
