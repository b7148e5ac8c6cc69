package engine

import (
	"regexp"
	"strings"
)

// appPrefixAbbreviations maps known app names straight to their
// conventional deployment-path prefix, bypassing the general
// derivation rule below.
var appPrefixAbbreviations = map[string]string{
	"damn vulnerable web application": "dvwa",
	"owasp juice shop":                "juice-shop",
}

var appPrefixStripPrefixes = []string{"owasp ", "apache ", "the "}

var nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveAppPrefix derives a URL-path segment from a fingerprint's
// app_name for the C6 prefix-retry fallback: "Damn Vulnerable Web
// Application" -> "dvwa", "Grafana" -> "grafana". Empty name yields no
// prefix.
func DeriveAppPrefix(appName string) string {
	if appName == "" {
		return ""
	}

	lower := strings.ToLower(strings.TrimSpace(appName))
	if abbrev, ok := appPrefixAbbreviations[lower]; ok {
		return abbrev
	}

	stripped := true
	for stripped {
		stripped = false
		for _, prefix := range appPrefixStripPrefixes {
			if strings.HasPrefix(lower, prefix) {
				lower = lower[len(prefix):]
				stripped = true
			}
		}
	}

	prefix := nonAlphanumericRun.ReplaceAllString(lower, "-")
	prefix = strings.Trim(prefix, "-")

	if len(prefix) > 20 {
		words := strings.Fields(appName)
		if len(words) > 1 {
			var acronym strings.Builder
			for _, w := range words {
				acronym.WriteString(strings.ToLower(w[:1]))
			}
			if acronym.Len() >= 2 {
				prefix = acronym.String()
			}
		} else {
			prefix = prefix[:20]
		}
	}

	return prefix
}
