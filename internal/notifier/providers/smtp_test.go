package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "bot@example.com", "pw", "")
	mail := s.Message("me@example.com", "Sync report", "<p>ok</p>", "ok")

	raw, err := mail.Bytes()
	require.NoError(t, err)
	msg := string(raw)

	assert.Equal(t, "lisync <bot@example.com>", mail.From)
	assert.Contains(t, msg, "Subject: Sync report")
	assert.Contains(t, msg, "multipart/alternative")
	assert.True(t, strings.Contains(msg, "text/plain") && strings.Contains(msg, "text/html"))
}
