package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"bookreview/internal/config"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailNotifier_SkipsWithoutSMTP(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{}, nil)
	fake := &fakeSender{}
	n.dialer = fake

	require.NoError(t, n.SendWelcome(context.Background(), "alice@example.com", "Alice"))
	assert.Empty(t, fake.sent)
}

func TestEmailNotifier_SendWelcome(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "books@example.com"}, nil)
	fake := &fakeSender{}
	n.dialer = fake

	require.NoError(t, n.SendWelcome(context.Background(), "alice@example.com", "<Alice>"))
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"books@example.com"}, msg.GetHeader("From"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "&lt;Alice&gt;")
}

func TestEmailNotifier_SendError(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "smtp.example.com", From: "books@example.com"}, nil)
	n.dialer = &fakeSender{err: errors.New("dial tcp: refused")}

	err := n.SendWelcome(context.Background(), "alice@example.com", "Alice")
	assert.ErrorContains(t, err, "send email")
	assert.Error(t, n.SendWelcome(context.Background(), " ", "Alice"))
}
