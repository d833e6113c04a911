package triage

import (
	"fmt"
	"regexp"
	"strings"
)

// Conservative local@domain shape. Anything fancier belongs to the mail
// server, not a triage tool.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks a draft against the output contract. It is pure and
// total: a nil draft is reported, never a panic, and all failures are
// collected rather than short-circuiting on the first.
func Validate(d *Draft) (bool, []string) {
	if d == nil {
		return false, []string{"no data extracted"}
	}

	var errs []string

	if strings.TrimSpace(d.Customer) == "" {
		errs = append(errs, "missing field: customer")
	}

	email := strings.TrimSpace(d.Email)
	if email == "" {
		errs = append(errs, "missing field: email")
	} else if !emailPattern.MatchString(email) {
		errs = append(errs, "invalid email format")
	}

	if strings.TrimSpace(d.Summary) == "" {
		errs = append(errs, "missing field: summary")
	}

	if !ValidCategory(d.Category) {
		errs = append(errs, fmt.Sprintf("invalid category: %s", d.Category))
	}

	if !ValidUrgency(d.Urgency) {
		errs = append(errs, fmt.Sprintf("invalid urgency: %s", d.Urgency))
	}

	return len(errs) == 0, errs
}
