package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/pkg/jobs"
	"github.com/noah-isme/career-services-api/pkg/mailer"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifyIgnoresStoreFailure(t *testing.T) {
	repo := &fakeNotifications{createErr: errors.New("db down")}
	svc := NewNotificationService(repo, nil, nil, nil)

	assert.NotPanics(t, func() { svc.Notify(context.Background(), "u1", "hello") })
	assert.Empty(t, repo.items)
}

func TestNotificationListAndMarkRead(t *testing.T) {
	repo := &fakeNotifications{}
	svc := NewNotificationService(repo, nil, nil, nil)
	ctx := context.Background()

	svc.Notify(ctx, "u1", "first")
	svc.Notify(ctx, "u1", "second")
	svc.Notify(ctx, "u2", "other")

	items, err := svc.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkRead(ctx, "u1", items[0].ID))
	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Error(t, svc.MarkRead(ctx, "u2", items[1].ID))
}

func TestEmailQueuesTrimmedRecipients(t *testing.T) {
	queue := &fakeQueue{}
	svc := NewNotificationService(&fakeNotifications{}, queue, nil, nil)

	svc.Email("Subject", "Body", " a@example.com ", "", "b@example.com")
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, EmailJobType, queue.jobs[0].Type)
	msg := queue.jobs[0].Payload.(mailer.Message)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)

	svc.Email("Nobody", "Body", " ")
	assert.Len(t, queue.jobs, 1)
}

func TestEmailDropsWhenQueueFails(t *testing.T) {
	queue := &fakeQueue{err: errors.New("queue full")}
	svc := NewNotificationService(&fakeNotifications{}, queue, nil, nil)

	assert.NotPanics(t, func() { svc.Email("Subject", "Body", "a@example.com") })

	unconfigured := NewNotificationService(&fakeNotifications{}, nil, nil, nil)
	assert.NotPanics(t, func() { unconfigured.Email("Subject", "Body", "a@example.com") })
}

func TestEmailHandlerDelivers(t *testing.T) {
	sender := &recordingSender{}
	handler := EmailHandler(sender)

	msg := mailer.Message{To: []string{"a@example.com"}, Subject: "Hi"}
	require.NoError(t, handler(context.Background(), jobs.Job{Type: EmailJobType, Payload: msg}))
	assert.Equal(t, []mailer.Message{msg}, sender.sent)

	assert.Error(t, handler(context.Background(), jobs.Job{Type: EmailJobType, Payload: "not a message"}))

	sender.err = errors.New("smtp down")
	assert.Error(t, handler(context.Background(), jobs.Job{Type: EmailJobType, Payload: msg}))
}
