package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_Bold(t *testing.T) {
	result := RenderMarkdown("**482913**")
	assert.Contains(t, result, "<strong>482913</strong>")
}

func TestRenderMarkdown_Heading(t *testing.T) {
	result := RenderMarkdown("## Clinic")
	assert.Contains(t, result, "<h2")
	assert.Contains(t, result, "Clinic</h2>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestOTPMarkdown(t *testing.T) {
	md := OTPMarkdown("Ayur Clinic", "482913", 10*time.Minute)

	assert.Contains(t, md, "## Ayur Clinic")
	assert.Contains(t, md, "**482913**")
	assert.Contains(t, md, "10 minutes")
}

func TestNewOTPMessage_Bytes(t *testing.T) {
	msg := NewOTPMessage("noreply@clinic.test", "a@x.com", "Ayur Clinic", "482913", 10*time.Minute)
	raw := string(msg.Bytes())

	assert.Contains(t, raw, "From: noreply@clinic.test\r\n")
	assert.Contains(t, raw, "To: a@x.com\r\n")
	assert.Contains(t, raw, "Subject: Your sign-in code\r\n")
	assert.Contains(t, raw, `multipart/alternative; boundary="`+mimeBoundary+`"`)
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=utf-8\r\n")
	assert.Contains(t, raw, "<strong>482913</strong>")
	assert.True(t, strings.HasSuffix(raw, "--"+mimeBoundary+"--\r\n"))

	// Every newline is CRLF.
	assert.NotContains(t, strings.ReplaceAll(raw, "\r\n", ""), "\n")
}
