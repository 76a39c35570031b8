package mailservice

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMailSend(t *testing.T) {
	t.Run("successful send", func(t *testing.T) {
		dialer := &MockDialer{}
		parser := &MockTemplate{}

		parser.On("ParseTemplate", "blog_approved.html", mock.Anything).
			Return(bytes.NewBufferString("subject"), bytes.NewBufferString("plain"), bytes.NewBufferString("html"), nil)
		dialer.On("DialAndSend", mock.Anything).Return(nil)

		m := &Mail{dialer: dialer, parser: parser, sender: "noreply@devnovate.dev"}

		err := m.send("author@example.com", nil, "blog_approved.html")
		assert.NoError(t, err)
		dialer.AssertExpectations(t)
		parser.AssertExpectations(t)
	})

	t.Run("dialer failure", func(t *testing.T) {
		dialer := &MockDialer{}
		parser := &MockTemplate{}

		parser.On("ParseTemplate", "blog_approved.html", mock.Anything).
			Return(bytes.NewBufferString("subject"), bytes.NewBufferString("plain"), bytes.NewBufferString("html"), nil)
		dialer.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

		m := &Mail{dialer: dialer, parser: parser, sender: "noreply@devnovate.dev"}

		err := m.send("author@example.com", nil, "blog_approved.html")
		assert.Error(t, err)
	})
}
