// Package validate holds the input shapes shared by the login flow and the
// registration wizards. The rules are deliberately lenient copies of what
// the portal frontend enforces, so both sides agree on what "looks like" an
// email or a phone number.
package validate

import (
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
)

// emailRe accepts local@domain.tld: one @, at least one dot after it,
// no whitespace. govalidator's IsEmail is stricter than the frontend,
// so the email shape stays a regexp.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether v has a plausible email shape.
func IsEmail(v string) bool { return emailRe.MatchString(v) }

// IsIdentifierPhone reports whether v is a valid login phone identifier:
// 8 to 15 digits with an optional leading +. Wizard forms use the stricter
// 10-digit floor.
func IsIdentifierPhone(v string) bool { return isPhone(v, 8) }

// IsContactPhone reports whether v is a valid registration phone number.
func IsContactPhone(v string) bool { return isPhone(v, 10) }

func isPhone(v string, minDigits int) bool {
	digits := strings.TrimPrefix(v, "+")
	if digits == "" {
		return false
	}
	return govalidator.IsNumeric(digits) && govalidator.IsByteLength(digits, minDigits, 15)
}
