package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/pkg/config"
)

func TestNewSelectsSender(t *testing.T) {
	_, isLog := New(config.MailConfig{Enabled: false}, zap.NewNop()).(*LogSender)
	assert.True(t, isLog)

	_, isSMTP := New(config.MailConfig{Enabled: true, Host: "smtp.local", Port: 25}, nil).(*SMTPSender)
	assert.True(t, isSMTP)
}

func TestSMTPSenderRejectsEmptyRecipients(t *testing.T) {
	sender := NewSMTPSender(config.MailConfig{Host: "smtp.local", Port: 25, From: "noreply@careers.local"})
	err := sender.Send(context.Background(), Message{Subject: "hello"})
	require.Error(t, err)
}

func TestLogSenderNeverFails(t *testing.T) {
	require.NoError(t, NewLogSender(nil).Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "x"}))
}
