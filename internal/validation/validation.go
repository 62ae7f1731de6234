// Package validation holds the patient contact field rules shared by the
// booking wizard and the chat assistant.
package validation

import (
	"regexp"
	"sort"
	"strings"
)

const (
	minNameLength  = 2
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Field names used as keys in Errors.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldMobile    = "mobile"
)

// Errors maps a field name to the reason it was rejected.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation: ok"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Patient is the contact information a patient enters before confirming.
type Patient struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	CountryCode string `json:"country_code"`
}

// ValidName reports whether s has at least two non-blank characters and
// contains only ASCII letters and whitespace.
func ValidName(s string) bool {
	return len(strings.TrimSpace(s)) >= minNameLength && namePattern.MatchString(s)
}

// ValidEmail applies a single-@, dotted-domain check. It does not verify
// deliverability.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// PhoneDigits strips everything except digits.
func PhoneDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidPhone reports whether s carries between 10 and 15 digits.
func ValidPhone(s string) bool {
	n := len(PhoneDigits(s))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// ValidatePatient checks every field and returns Errors, or nil when the
// patient may be accepted.
func ValidatePatient(p Patient) error {
	errs := Errors{}
	if !ValidName(p.FirstName) {
		errs[FieldFirstName] = "must be at least 2 letters"
	}
	if !ValidName(p.LastName) {
		errs[FieldLastName] = "must be at least 2 letters"
	}
	if !ValidEmail(p.Email) {
		errs[FieldEmail] = "must be a valid email address"
	}
	if !ValidPhone(p.Mobile) {
		errs[FieldMobile] = "must contain 10 to 15 digits"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize trims the patient fields, reduces the mobile number to digits and
// resolves the country code against fallback.
func Normalize(p Patient, fallbackCountryCode string) Patient {
	return Patient{
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		Email:       strings.TrimSpace(p.Email),
		Mobile:      PhoneDigits(p.Mobile),
		CountryCode: NormalizeCountryCode(p.CountryCode, fallbackCountryCode),
	}
}

// NormalizeCountryCode strips "+" and spaces from a dialling prefix; an empty
// result falls back to fallback.
func NormalizeCountryCode(code, fallback string) string {
	digits := PhoneDigits(code)
	if digits == "" {
		return PhoneDigits(fallback)
	}
	return digits
}
