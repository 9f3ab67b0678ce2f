package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"grantapp/internal/application/models"
)

// Sanitizer strips markup from free-text fields.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes every tag from v and trims it. Entities are decoded back to
// plain characters, and the strip and decode pass repeats until the value no
// longer changes, so the result is always something the policy leaves intact.
// Each changing pass shortens the value, which bounds the loop.
func (s *Sanitizer) Text(v string) string {
	for {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return strings.TrimSpace(v)
		}
		v = next
	}
}

// Fields sanitizes the free-text fields of f in place.
func (s *Sanitizer) Fields(f *models.Fields) {
	for _, p := range []*string{
		&f.FirstName,
		&f.MiddleName,
		&f.LastName,
		&f.Address,
		&f.City,
		&f.State,
		&f.BankName,
		&f.MaritalStatus,
		&f.NextOfKin,
		&f.MotherName,
		&f.HearingStatus,
		&f.HousingType,
		&f.PhoneCourier,
		&f.GrantSelect,
		&f.GrantDescription,
	} {
		*p = s.Text(*p)
	}
}
