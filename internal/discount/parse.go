package discount

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	percentLineRe = regexp.MustCompile(`(?i)percent\s*:\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	bareNumberRe  = regexp.MustCompile(`(-?[0-9]+(?:\.[0-9]+)?)\s*%?`)
)

// parseResponse extracts the proposed percentage and the justification
// text from a backend response. A "PERCENT: <number>" line is preferred;
// failing that, the first number in the text is used. The percentage must
// land in [0, 100].
func parseResponse(response string) (float64, string, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return 0, "", fmt.Errorf("empty response")
	}

	var raw string
	if m := percentLineRe.FindStringSubmatch(trimmed); m != nil {
		raw = m[1]
	} else if m := bareNumberRe.FindStringSubmatch(trimmed); m != nil {
		raw = m[1]
	} else {
		return 0, "", fmt.Errorf("no percentage found in response")
	}

	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid percentage %q: %w", raw, err)
	}
	if percent < 0 || percent > 100 {
		return 0, "", fmt.Errorf("percentage %.1f out of range [0, 100]", percent)
	}

	return percent, justificationText(trimmed), nil
}

// justificationText strips the PERCENT line and returns what remains
func justificationText(response string) string {
	var kept []string
	for _, line := range strings.Split(response, "\n") {
		if percentLineRe.MatchString(line) {
			continue
		}
		if s := strings.TrimSpace(line); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}
