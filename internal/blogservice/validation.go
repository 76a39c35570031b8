package blogservice

import (
	"regexp"

	"github.com/devnovate/devnovate/internal/common"
)

var (
	TitleRX = regexp.MustCompile("^[a-zA-Z0-9 ]+$")
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 100), "title", "must be between 3 and 100 characters long")
	v.Check(TitleRX.MatchString(title), "title", "must only contain letters, numbers, and spaces")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.CheckNotBlank(content), "content", "must be provided")
}

func validateTags(v *common.Validator, tags []string) {
	v.Check(len(tags) <= 5, "tags", "must not contain more than 5 tags")

	seen := make(map[string]bool)
	for _, tag := range tags {
		v.Check(v.CheckNotBlank(tag), "tags", "must not contain blank tags")
		v.Check(v.CheckStringLength(tag, 1, 30), "tags", "each tag must be at most 30 characters long")
		v.Check(!seen[tag], "tags", "must not contain duplicate tags")
		seen[tag] = true
	}
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func validateInitialStatus(v *common.Validator, status Status) {
	v.Check(status == StatusDraft || status == StatusPending, "status", "must be either draft or pending")
}

func validateReason(v *common.Validator, reason *string) {
	if reason == nil {
		return
	}
	v.Check(v.CheckNotBlank(*reason), "reason", "must not be blank when provided")
	v.Check(v.CheckStringLength(*reason, 1, 500), "reason", "must not be more than 500 characters long")
}
