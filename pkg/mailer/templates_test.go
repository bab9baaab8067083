package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvitation(t *testing.T) {
	subject, body, err := Render(TemplateEvaluatorInvitation, map[string]interface{}{
		"EvaluatorName": "Ana",
		"EventName":     "GopherCon",
		"AcceptURL":     "http://example.com/accept",
		"DeclineURL":    "http://example.com/decline",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Invitation")
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "http://example.com/accept")
	assert.Contains(t, body, "http://example.com/decline")
}

func TestRenderDecision(t *testing.T) {
	_, body, err := Render(TemplateEvaluatorDecision, map[string]interface{}{
		"EvaluatorName": "Ana",
		"EventName":     "GopherCon",
		"Approved":      false,
		"Justification": "missing slides",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Rejected")
	assert.Contains(t, body, "missing slides")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", nil)
	assert.Error(t, err)
}
