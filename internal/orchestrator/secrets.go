package orchestrator

import "regexp"

// secretPatterns matches the common credential shapes the turn loop refuses
// to forward to a provider or store verbatim: OpenAI/Anthropic-style API
// keys, AWS access key IDs, generic bearer tokens, and PEM private key
// headers. This is a small, fixed pattern set specific to the loop's
// validate-and-redact step, not a generic secret-scanning problem a pack
// library models.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`),
}

// ContainsSecret reports whether s matches any recognised credential shape.
func ContainsSecret(s string) bool {
	for _, p := range secretPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// RedactSecrets replaces every recognised credential shape in s with a
// fixed redaction marker, used on tool results and stored memory payloads
// before they leave the process.
func RedactSecrets(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}
