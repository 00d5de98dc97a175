package providers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ExcerptLimit bounds how much of an upstream body is carried in an error.
const ExcerptLimit = 400

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
}

type ChatResponse struct {
	Text string
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// UpstreamError is a non-success or unreadable answer from a provider API.
type UpstreamError struct {
	StatusCode int
	Excerpt    string
	Reason     string
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "status %d", e.StatusCode)
	}
	if e.Reason != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Reason)
	}
	if e.Excerpt != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Excerpt)
	}
	return b.String()
}

// Excerpt trims body to at most ExcerptLimit runes.
func Excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) <= ExcerptLimit {
		return s
	}
	r := []rune(s)
	return string(r[:ExcerptLimit]) + "…"
}
