package validation

import "strings"

var emailDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"icloud.com",
	"protonmail.com",
	"aol.com",
	"mail.com",
}

// EmailSuggestions completes a partially typed address once the user has
// entered "@" but no dot yet. Domains are filtered by the typed prefix.
func EmailSuggestions(input string) []string {
	if !strings.Contains(input, "@") || strings.Contains(input, ".") {
		return nil
	}
	parts := strings.SplitN(input, "@", 2)
	username, domain := parts[0], strings.ToLower(parts[1])

	var out []string
	for _, d := range emailDomains {
		if strings.HasPrefix(d, domain) {
			out = append(out, username+"@"+d)
		}
	}
	return out
}
