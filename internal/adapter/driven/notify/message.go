// Package notify implements the Notifier port: out-of-band delivery of
// one-time codes.
package notify

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// otpSubject is the subject line of the code email.
const otpSubject = "Your sign-in code"

// OTPMarkdown returns the markdown body of the code email.
func OTPMarkdown(clinicName, code string, ttl time.Duration) string {
	return fmt.Sprintf(`## %s

Your one-time sign-in code is:

**%s**

It expires in %d minutes and can be used once. If you did not ask for this code
you can ignore this email.
`, clinicName, code, int(ttl.Minutes()))
}

// Message is a rendered email ready for SMTP DATA.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// NewOTPMessage renders the code email in both plain text and HTML.
func NewOTPMessage(from, to, clinicName, code string, ttl time.Duration) Message {
	md := OTPMarkdown(clinicName, code, ttl)
	return Message{
		From:    from,
		To:      to,
		Subject: otpSubject,
		Text:    md,
		HTML:    RenderMarkdown(md),
	}
}

// mimeBoundary separates the text and HTML parts. It only has to not occur in
// either body, which rendered markdown cannot produce.
const mimeBoundary = "clinicauth-alt-boundary"

// Bytes encodes the message as a multipart/alternative RFC 5322 message with
// CRLF line endings.
func (m Message) Bytes() []byte {
	var b strings.Builder

	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	writeHeader("From", m.From)
	writeHeader("To", m.To)
	writeHeader("Subject", m.Subject)
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `multipart/alternative; boundary="`+mimeBoundary+`"`)
	b.WriteString("\r\n")

	writePart := func(contentType, body string) {
		b.WriteString("--" + mimeBoundary + "\r\n")
		writeHeader("Content-Type", contentType)
		b.WriteString("\r\n")
		b.WriteString(toCRLF(body))
		b.WriteString("\r\n")
	}

	writePart("text/plain; charset=utf-8", m.Text)
	writePart("text/html; charset=utf-8", m.HTML)
	b.WriteString("--" + mimeBoundary + "--\r\n")

	return []byte(b.String())
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
