package mailservice

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func newTestMailService(consumer *MockMessageConsumer, mailer *MockMailer) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     consumer,
		m:      mailer,
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func TestSendActivationEmail(t *testing.T) {
	consumer := &MockMessageConsumer{
		Deliveries: []amqp.Delivery{
			{Body: []byte(`{"Email": "test@example.com", "Token": "testtoken"}`)},
		},
	}
	mailer := &MockMailer{}

	s := newTestMailService(consumer, mailer)
	defer s.Close()

	s.SendActivationEmail()

	assert.Eventually(t, func() bool {
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		return len(mailer.Emails) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "test@example.com", mailer.Emails[0])
	assert.Equal(t, "activation_email.html", mailer.Templates[0])
}

func TestSendAuthorNotifications(t *testing.T) {
	consumer := &MockMessageConsumer{
		Deliveries: []amqp.Delivery{
			{RoutingKey: "blog.approved", Body: []byte(`{"email": "author@example.com", "title": "My Post"}`)},
			{RoutingKey: "blog.rejected", Body: []byte(`{"email": "author@example.com", "title": "My Post", "reason": "needs work"}`)},
			{RoutingKey: "comment.created", Body: []byte(`{"email": "author@example.com", "title": "My Post", "commenter": "alice"}`)},
		},
	}
	mailer := &MockMailer{}

	s := newTestMailService(consumer, mailer)
	defer s.Close()

	s.SendAuthorNotifications()

	assert.Eventually(t, func() bool {
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		return len(mailer.Emails) == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"blog_approved.html", "blog_rejected.html", "new_comment.html"}, mailer.Templates)
}
