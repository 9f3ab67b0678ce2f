package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	assert.Equal(t, "203.0.113.0", AnonymizeIP("203.0.113.77"))
	assert.Equal(t, "2001:db8:85a3::", AnonymizeIP("2001:db8:85a3::8a2e:370:7334"))
	assert.Equal(t, "invalid", AnonymizeIP("not-an-ip"))
	assert.Equal(t, "", AnonymizeIP(""))
}
