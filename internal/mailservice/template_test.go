package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplate(t *testing.T) {
	tp := NewTemplate()

	t.Run("activation email", func(t *testing.T) {
		data := struct{ ActivationToken string }{ActivationToken: "TESTTOKEN"}

		subject, plainBody, htmlBody, err := tp.ParseTemplate("activation_email.html", data)
		assert.NoError(t, err)
		assert.Contains(t, subject.String(), "Activate")
		assert.Contains(t, plainBody.String(), "TESTTOKEN")
		assert.Contains(t, htmlBody.String(), "TESTTOKEN")
	})

	t.Run("rejection with reason", func(t *testing.T) {
		data := struct{ Title, Reason string }{Title: "My Post", Reason: "needs work"}

		_, plainBody, htmlBody, err := tp.ParseTemplate("blog_rejected.html", data)
		assert.NoError(t, err)
		assert.Contains(t, plainBody.String(), "needs work")
		assert.Contains(t, htmlBody.String(), "needs work")
		// the email must not promise automatic re-review after an edit
		assert.Contains(t, plainBody.String(), "until a moderator approves it again")
	})

	t.Run("rejection without reason", func(t *testing.T) {
		data := struct{ Title, Reason string }{Title: "My Post"}

		_, plainBody, _, err := tp.ParseTemplate("blog_rejected.html", data)
		assert.NoError(t, err)
		assert.NotContains(t, plainBody.String(), "Reviewer note")
	})

	t.Run("new comment", func(t *testing.T) {
		data := struct{ Title, Commenter string }{Title: "My Post", Commenter: "alice"}

		subject, plainBody, _, err := tp.ParseTemplate("new_comment.html", data)
		assert.NoError(t, err)
		assert.Contains(t, subject.String(), "comment")
		assert.Contains(t, plainBody.String(), "alice")
	})

	t.Run("missing template", func(t *testing.T) {
		_, _, _, err := tp.ParseTemplate("nope.html", nil)
		assert.Error(t, err)
	})
}
