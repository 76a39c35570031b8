package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/devnovate/devnovate/internal/common"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      NewMailer(host, port, username, password, sender, NewTemplate()),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SendActivationEmail consumes user.registered events and emails the
// activation token to the new account.
func (s *MailService) SendActivationEmail() {
	msgs, err := s.mb.Consume(common.UserRegisteredKey, common.EventExchange, common.ActivationMailQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data struct {
					Email string
					Token string
				}

				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					continue
				}

				payload := struct {
					ActivationToken string
				}{
					ActivationToken: data.Token,
				}

				s.sendWithRetry(msg, data.Email, payload, "activation_email.html")

			case <-s.ctx.Done():
				s.logger.Info("stopping SendActivationEmail due to context cancellation")
				return
			}
		}
	}()
}

// SendAuthorNotifications consumes the moderation and comment events and
// emails the post author. The routing key picks the template.
func (s *MailService) SendAuthorNotifications() {
	msgs, err := s.mb.Consume(common.BlogApprovedKey, common.EventExchange, common.NotificationMailQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data struct {
					Email     string `json:"email"`
					Title     string `json:"title"`
					Reason    string `json:"reason"`
					Commenter string `json:"commenter"`
				}

				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					continue
				}

				var templateFile string
				switch common.BindingKey(msg.RoutingKey) {
				case common.BlogApprovedKey:
					templateFile = "blog_approved.html"
				case common.BlogRejectedKey:
					templateFile = "blog_rejected.html"
				case common.CommentCreatedKey:
					templateFile = "new_comment.html"
				default:
					s.logger.Error("unknown routing key", slog.String("key", msg.RoutingKey))
					msg.Ack(false)
					continue
				}

				payload := struct {
					Title     string
					Reason    string
					Commenter string
				}{
					Title:     data.Title,
					Reason:    data.Reason,
					Commenter: data.Commenter,
				}

				s.sendWithRetry(msg, data.Email, payload, templateFile)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendAuthorNotifications due to context cancellation")
				return
			}
		}
	}()
}

// sendWithRetry delivers one message with jittered exponential backoff. The
// delivery is acked either way: notification mail is best-effort and a
// poisoned message must not wedge the queue.
func (s *MailService) sendWithRetry(msg amqp.Delivery, recipient string, payload any, templateFile string) {
	const maxRetries = 5
	const baseDelay = 500 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(recipient, payload, templateFile)
		if err == nil {
			s.logger.Info("email sent", slog.String("email", recipient), slog.String("template", templateFile))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))
		time.Sleep(delay)
	}

	s.logger.Error("could not send email", slog.String("email", recipient), slog.String("template", templateFile))
	msg.Ack(false)
}

func (s *MailService) Close() {
	s.cancel()
}
