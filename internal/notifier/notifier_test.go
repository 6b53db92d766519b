package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/lisync/internal/config"
	"github.com/ibeckermayer/lisync/internal/report"
)

type recordingSender struct {
	to, subject, html, plain string
	err                      error
}

func (r *recordingSender) Send(to, subject, htmlBody, plainBody string) error {
	r.to, r.subject, r.html, r.plain = to, subject, htmlBody, plainBody
	return r.err
}

func TestSendReport(t *testing.T) {
	s := &recordingSender{}
	n := New(s, "me@example.com")

	err := n.SendReport(&report.Report{Subject: "subj", HTMLBody: "<p>hi</p>", PlainBody: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", s.to)
	assert.Equal(t, "subj", s.subject)
	assert.Equal(t, "<p>hi</p>", s.html)
	assert.Equal(t, "hi", s.plain)
}

func TestSendReport_Error(t *testing.T) {
	n := New(&recordingSender{err: errors.New("boom")}, "me@example.com")
	assert.EqualError(t, n.SendReport(&report.Report{}), "boom")
}

func TestNewFromConfig(t *testing.T) {
	n, err := NewFromConfig(config.NotifyConfig{})
	require.NoError(t, err)
	assert.Nil(t, n, "disabled")

	n, err = NewFromConfig(config.NotifyConfig{Enabled: true, Provider: "smtp", SMTPHost: "localhost", SMTPPort: 25, ToAddr: "me@example.com"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "me@example.com", n.to)

	_, err = NewFromConfig(config.NotifyConfig{Enabled: true, Provider: "sendgrid"})
	assert.Error(t, err)
}
