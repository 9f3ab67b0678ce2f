package email

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

// IsValid reports whether address is a syntactically valid mailbox.
func IsValid(address string) bool {
	return address != "" && govalidator.IsEmail(address)
}

// Mask hides most of the local part so addresses can be logged:
// "jane.doe@example.com" becomes "j***@example.com".
func Mask(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		return "***"
	}
	runes := []rune(address[:at])
	return string(runes[0]) + "***" + address[at:]
}
