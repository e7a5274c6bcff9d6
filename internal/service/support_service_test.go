package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/mailer"
)

type fakeSupport struct {
	items []*models.SupportQuery
}

func (f *fakeSupport) Create(ctx context.Context, q *models.SupportQuery) error {
	q.ID = fmt.Sprintf("q-%d", len(f.items)+1)
	if q.Priority == "" {
		q.Priority = models.SupportPriorityLow
	}
	q.CreatedAt = testNow
	copy := *q
	f.items = append(f.items, &copy)
	return nil
}

func (f *fakeSupport) FindByID(ctx context.Context, id string) (*models.SupportQuery, error) {
	for _, q := range f.items {
		if q.ID == id {
			copy := *q
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupport) List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, int, error) {
	var out []models.SupportQuery
	for _, q := range f.items {
		if filter.UserID != "" && q.UserID != filter.UserID {
			continue
		}
		if filter.Priority != "" && q.Priority != filter.Priority {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (f *fakeSupport) Reply(ctx context.Context, id, reply string) error {
	for _, q := range f.items {
		if q.ID == id {
			text := reply
			q.Reply = &text
			q.Resolved = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeSupport) Escalate(ctx context.Context, id string) (bool, error) {
	for _, q := range f.items {
		if q.ID == id && !q.Resolved {
			q.Priority = models.SupportPriorityEscalated
			return true, nil
		}
	}
	return false, nil
}

func newSupportFixture() (*SupportService, *fakeSupport, *fakeNotifications, *fakeQueue) {
	store := &fakeSupport{}
	users := newFakeUsers(&models.User{ID: "cand-1", FullName: "Asha Rao", Email: "asha@example.com"})
	notes := &fakeNotifications{}
	queue := &fakeQueue{}
	svc := NewSupportService(store, users, NewNotificationService(notes, queue, nil, nil), nil, nil)
	return svc, store, notes, queue
}

func TestSupportSubmitValidatesAndDefaults(t *testing.T) {
	svc, store, _, _ := newSupportFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: "   ", Message: "help"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: "Refund", Message: "help", Priority: models.SupportPriorityEscalated})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	q, err := svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: " Refund ", Message: "Charged twice"})
	require.NoError(t, err)
	assert.Equal(t, "Refund", q.Subject)
	assert.Equal(t, models.SupportPriorityLow, q.Priority)
	assert.Len(t, store.items, 1)

	mine, page, err := svc.Mine(ctx, "cand-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, 1, page.TotalCount)

	_, _, err = svc.List(ctx, models.SupportQueryFilter{Priority: "URGENT"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSupportReplyResolvesAndEmails(t *testing.T) {
	svc, store, notes, queue := newSupportFixture()
	ctx := context.Background()
	q, err := svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: "Mock interview", Message: "Can I move it?"})
	require.NoError(t, err)

	answered, err := svc.Reply(ctx, q.ID, models.ReplySupportQueryRequest{Reply: "Yes, use postpone."}, "staff-1")
	require.NoError(t, err)
	assert.True(t, answered.Resolved)
	require.NotNil(t, answered.Reply)
	assert.True(t, store.items[0].Resolved)

	require.Len(t, notes.items, 1)
	assert.Equal(t, "cand-1", notes.items[0].UserID)
	require.Len(t, queue.jobs, 1)
	msg, ok := queue.jobs[0].Payload.(mailer.Message)
	require.True(t, ok)
	assert.Equal(t, []string{"asha@example.com"}, msg.To)
	assert.Contains(t, msg.Body, "Yes, use postpone.")

	_, err = svc.Reply(ctx, "missing", models.ReplySupportQueryRequest{Reply: "hi"}, "staff-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.Reply(ctx, q.ID, models.ReplySupportQueryRequest{Reply: " "}, "staff-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSupportEscalateOnlyOpenQueries(t *testing.T) {
	svc, _, _, _ := newSupportFixture()
	ctx := context.Background()
	open, err := svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: "Login", Message: "Locked out"})
	require.NoError(t, err)
	done, err := svc.Submit(ctx, "cand-1", models.CreateSupportQueryRequest{Subject: "Invoice", Message: "Missing PDF"})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, done.ID, models.ReplySupportQueryRequest{Reply: "Resent."}, "staff-1")
	require.NoError(t, err)

	escalated, err := svc.Escalate(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SupportPriorityEscalated, escalated.Priority)

	again, err := svc.Escalate(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SupportPriorityEscalated, again.Priority)

	_, err = svc.Escalate(ctx, done.ID)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	_, err = svc.Escalate(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	queue, _, err := svc.List(ctx, models.SupportQueryFilter{Priority: models.SupportPriorityEscalated})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, open.ID, queue[0].ID)
}
