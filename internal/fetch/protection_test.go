package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

func respWith(status int, headers map[string]string) *http.Response {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestDetect_CloudflareHeader(t *testing.T) {
	resp := respWith(503, map[string]string{"cf-ray": "abc123"})
	assert.Equal(t, model.ProtectionBrowserChallenge, Detect(resp, nil))
}

func TestDetect_CloudflareBody(t *testing.T) {
	resp := respWith(200, nil)
	body := []byte("Checking your browser before accessing example.com")
	assert.Equal(t, model.ProtectionBrowserChallenge, Detect(resp, body))
}

func TestDetect_Captcha(t *testing.T) {
	resp := respWith(200, nil)
	body := []byte("Please complete the reCAPTCHA below to continue")
	assert.Equal(t, model.ProtectionCaptcha, Detect(resp, body))
}

func TestDetect_RateLimitHeader(t *testing.T) {
	resp := respWith(429, nil)
	assert.Equal(t, model.ProtectionRateLimit, Detect(resp, nil))
}

func TestDetect_RateLimitBody(t *testing.T) {
	resp := respWith(200, nil)
	body := []byte("Too many requests, please slow down")
	assert.Equal(t, model.ProtectionRateLimit, Detect(resp, body))
}

func TestDetect_WAFBody(t *testing.T) {
	resp := respWith(403, nil)
	body := []byte("Access denied by Imperva Incapsula")
	assert.Equal(t, model.ProtectionWAF, Detect(resp, body))
}

func TestDetect_BotDetectionBody(t *testing.T) {
	resp := respWith(200, nil)
	body := []byte("We have detected unusual traffic from your network")
	assert.Equal(t, model.ProtectionBotDetection, Detect(resp, body))
}

func TestDetect_GenericForbiddenFallsBackToWAF(t *testing.T) {
	resp := respWith(403, nil)
	assert.Equal(t, model.ProtectionWAF, Detect(resp, []byte("nothing recognizable here")))
}

func TestDetect_CleanResponse(t *testing.T) {
	resp := respWith(200, nil)
	assert.Equal(t, model.ProtectionNone, Detect(resp, []byte("<html>welcome</html>")))
}

func TestDetect_NilResponse(t *testing.T) {
	assert.Equal(t, model.ProtectionNone, Detect(nil, nil))
}
