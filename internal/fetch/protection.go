package fetch

import (
	"net/http"
	"strings"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// Detect inspects a response and its body for known anti-bot protection
// signatures, classifying into one of five categories. Detection is
// substring-based and case-insensitive; it trades precision for coverage
// across the long tail of WAF vendors a site might run.
func Detect(resp *http.Response, body []byte) model.ProtectionCategory {
	if resp == nil {
		return model.ProtectionNone
	}

	if cat := detectFromHeaders(resp); cat != model.ProtectionNone {
		return cat
	}

	lower := strings.ToLower(string(body))
	return detectFromBody(resp.StatusCode, lower)
}

func detectFromHeaders(resp *http.Response) model.ProtectionCategory {
	server := strings.ToLower(resp.Header.Get("server"))

	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" || server == "cloudflare" {
			return model.ProtectionBrowserChallenge
		}
	}
	if resp.Header.Get("x-sucuri-id") != "" || resp.Header.Get("x-akamai-transformed") != "" {
		return model.ProtectionWAF
	}
	if resp.StatusCode == 429 {
		return model.ProtectionRateLimit
	}
	return model.ProtectionNone
}

func detectFromBody(statusCode int, lower string) model.ProtectionCategory {
	switch {
	case containsAny(lower, "checking your browser", "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")):
		return model.ProtectionBrowserChallenge

	case containsAny(lower, "captcha", "recaptcha", "hcaptcha", "are you human"):
		return model.ProtectionCaptcha

	case containsAny(lower, "rate limit exceeded", "too many requests", "slow down"):
		return model.ProtectionRateLimit

	case containsAny(lower, "access denied", "blocked by administrator", "request unsuccessful",
		"incapsula", "perimeterx", "distil networks", "imperva"):
		return model.ProtectionWAF

	case containsAny(lower, "unusual traffic", "automated query", "bot detection", "please verify you are a human"):
		return model.ProtectionBotDetection

	case statusCode == 403 || statusCode == 406:
		return model.ProtectionWAF
	}
	return model.ProtectionNone
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
