package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.inbox.Send(ctx, f.student, "t1", "  Can we move to 10:00?  ")
	require.NoError(t, err)
	assert.Equal(t, "Can we move to 10:00?", msg.Content)
	assert.Equal(t, "Alice", msg.FromName)

	texts := f.notifier.to("t1")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Can we move to 10:00?")
	assert.Contains(t, f.auditStore.actions(), "Message sent to: t1")

	_, err = f.inbox.Send(ctx, f.student, "t1", "   ")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.inbox.Send(ctx, f.student, "s1", "hi me")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.inbox.Send(ctx, f.student, "ghost", "hello")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.inbox.Send(ctx, nil, "t1", "hello")
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestInbox_MergesSentAndReceivedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := f.inbox.Send(ctx, f.student, "t1", fmt.Sprintf("question %d", i))
		require.NoError(t, err)
		_, err = f.inbox.Send(ctx, f.teacher, "s1", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
	}
	_, err := f.inbox.Send(ctx, f.student2, "t1", "unrelated")
	require.NoError(t, err)

	inbox, err := f.inbox.Inbox(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, inbox, 2*InboxLimit)

	assert.Equal(t, "answer 11", inbox[0].Content)
	assert.Equal(t, "question 11", inbox[1].Content)
	for i := 1; i < len(inbox); i++ {
		assert.False(t, inbox[i].CreatedAt.After(inbox[i-1].CreatedAt))
	}
	for _, m := range inbox {
		assert.NotEqual(t, "unrelated", m.Content)
	}
}
