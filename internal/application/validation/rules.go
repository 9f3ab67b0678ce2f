package validation

import (
	"fmt"
	"regexp"
	"slices"
	"unicode/utf8"

	"grantapp/pkg/email"
)

// rule returns a failure message, or "" when value passes.
type rule func(value string) string

var (
	zipPattern  = regexp.MustCompile(`^\d{5}$`)
	namePattern = regexp.MustCompile(`^[a-zA-Z\s\-]+$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

func minLen(n int, msg string) rule {
	return func(v string) string {
		if utf8.RuneCountInString(v) < n {
			return msg
		}
		return ""
	}
}

func maxLen(n int, msg string) rule {
	return func(v string) string {
		if utf8.RuneCountInString(v) > n {
			return msg
		}
		return ""
	}
}

func matches(re *regexp.Regexp, msg string) rule {
	return func(v string) string {
		if !re.MatchString(v) {
			return msg
		}
		return ""
	}
}

func oneOf(allowed []string, msg string) rule {
	return func(v string) string {
		if !slices.Contains(allowed, v) {
			return msg
		}
		return ""
	}
}

func validEmail(msg string) rule {
	return func(v string) string {
		if !email.IsValid(v) {
			return msg
		}
		return ""
	}
}

// digitCount strips formatting and checks the digit count against ok.
func digitCount(ok func(n int) bool, msg string) rule {
	return func(v string) string {
		if !ok(len(digitsOnly(v))) {
			return msg
		}
		return ""
	}
}

func digitsOnly(v string) string {
	return nonDigits.ReplaceAllString(v, "")
}

// fieldSpec describes one text field. An empty required message makes the
// field optional: absent values skip the remaining rules.
type fieldSpec struct {
	name     string
	required string
	rules    []rule
}

func text(name, label string, min, max int) fieldSpec {
	f := fieldSpec{name: name}
	if min > 0 {
		f.rules = append(f.rules, minLen(min, fmt.Sprintf("%s must be at least %d characters.", label, min)))
	}
	f.rules = append(f.rules, maxLen(max, fmt.Sprintf("%s cannot exceed %d characters.", label, max)))
	return f
}

func (s fieldSpec) require(msg string) fieldSpec {
	s.required = msg
	return s
}

func (s fieldSpec) with(rules ...rule) fieldSpec {
	s.rules = append(s.rules, rules...)
	return s
}

// check runs the field rules against value and records at most one message, the first
// rule that fails.
func (s fieldSpec) check(value string, errs Errors) {
	if value == "" {
		if s.required != "" {
			errs.Add(s.name, s.required)
		}
		return
	}
	for _, r := range s.rules {
		if msg := r(value); msg != "" {
			errs.Add(s.name, msg)
			return
		}
	}
}
