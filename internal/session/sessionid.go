// Package session implements the pedagogical-agent session lifecycle:
// student resolution, session identifier generation, and the
// in_progress -> completed state machine.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// agentTags maps known agent names to the short uppercase tag used in
// session identifiers. Unknown agents fall back to defaultAgentTag.
var agentTags = map[string]string{
	"tutor":      "TUT",
	"quiz":       "QUIZ",
	"evaluation": "EVAL",
	"coach":      "COACH",
	"planner":    "PLAN",
	"redaction":  "RED",
}

const defaultAgentTag = "AGT"

const (
	localFragmentLen = 4
	suffixBytes      = 2
)

// agentTag returns the identifier tag for an agent name.
func agentTag(agentName string) string {
	if tag, ok := agentTags[strings.ToLower(strings.TrimSpace(agentName))]; ok {
		return tag
	}
	return defaultAgentTag
}

// localFragment derives the uppercase four-char fragment from the email local
// part, keeping only letters and digits and padding with 'X' when short.
func localFragment(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(local) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == localFragmentLen {
				break
			}
		}
	}
	frag := b.String()
	for len(frag) < localFragmentLen {
		frag += "X"
	}
	return frag
}

// generateID composes a human-skimmable session identifier:
// TAG-YYYYMMDD-LOCL-hhhh. The random suffix reduces but does not eliminate
// collision probability; uniqueness is not guaranteed.
func (s *Service) generateID(agentName, email string) (string, error) {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id suffix: %w", err)
	}
	date := s.now().UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%s-%s", agentTag(agentName), date, localFragment(email), hex.EncodeToString(buf)), nil
}
