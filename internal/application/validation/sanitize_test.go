package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grantapp/internal/application/models"
)

func TestSanitizerText(t *testing.T) {
	s := NewSanitizer()

	cases := map[string]string{
		"  Jane  ":                       "Jane",
		"<b>Jane</b>":                    "Jane",
		"<script>alert(1)</script>Doe":   "Doe",
		"Smith & Sons":                   "Smith & Sons",
		"&lt;img src=x onerror=y&gt;Ann": "Ann",
		"O'Brien":                        "O'Brien",
	}
	for in, want := range cases {
		assert.Equal(t, want, s.Text(in), in)
	}
}

func TestSanitizerTextNestedEntities(t *testing.T) {
	s := NewSanitizer()

	assert.Equal(t, "Ann", s.Text("&amp;amp;lt;script&amp;amp;gt;alert(1)&amp;amp;lt;/script&amp;amp;gt;Ann"))
	assert.Equal(t, "Bo", s.Text("&amp;amp;amp;amp;lt;b&amp;amp;amp;amp;gt;Bo"))
}

func TestSanitizerTextIsStable(t *testing.T) {
	s := NewSanitizer()
	for _, in := range []string{
		"&amp;amp;lt;img src=x onerror=y&amp;amp;gt;",
		"&lt;&lt;b&gt;i&gt;x",
		"<<b>script>alert(1)<</b>/script>",
		"5 < 6 & 7 > 3",
	} {
		out := s.Text(in)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "<img", in)
		assert.Equal(t, out, s.Text(out), "sanitizing twice changes %q", in)
	}
}

func TestSanitizerFields(t *testing.T) {
	f := &models.Fields{
		FirstName:        " <i>Jane</i> ",
		GrantDescription: "<p>Need help</p>",
		Email:            "<jane@example.com>",
	}
	NewSanitizer().Fields(f)

	assert.Equal(t, "Jane", f.FirstName)
	assert.Equal(t, "Need help", f.GrantDescription)
	assert.Equal(t, "<jane@example.com>", f.Email, "email is not a free-text field")
}
