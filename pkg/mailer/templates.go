package mailer

import (
	"fmt"
	"strings"
	"text/template"
)

// Template identifiers used across the application.
const (
	TemplateAttendeeCode         = "attendee_code"
	TemplateSubmissionSuccess    = "submission_success"
	TemplateEvaluatorInvitation  = "evaluator_invitation"
	TemplateEvaluatorDecision    = "evaluator_decision"
	TemplateEvaluatorAccepted    = "evaluator_accepted"
	TemplateEvaluatorCredentials = "evaluator_credentials"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]mailTemplate{
	TemplateAttendeeCode: {
		subject: "Documentation Required",
		body: mustParse(TemplateAttendeeCode, `Hello{{if .AttendeeName}} {{.AttendeeName}}{{end}},

The organizers of {{.EventName}} require documentation from attendees.
Please submit your documents here:

{{.SubmissionURL}}

This link is personal and can be used once.
`),
	},
	TemplateSubmissionSuccess: {
		subject: "Your documents were received",
		body: mustParse(TemplateSubmissionSuccess, `Hello{{if .AttendeeName}} {{.AttendeeName}}{{end}},

Your documents for {{.EventName}} were received successfully.
The organizers will review them and get back to you.
`),
	},
	TemplateEvaluatorInvitation: {
		subject: "Invitation to evaluate submissions for an event",
		body: mustParse(TemplateEvaluatorInvitation, `Hello {{.EvaluatorName}},

You have been invited to evaluate attendee submissions for {{.EventName}}.

Accept:  {{.AcceptURL}}
Decline: {{.DeclineURL}}
`),
	},
	TemplateEvaluatorDecision: {
		subject: "An evaluator reviewed a submission",
		body: mustParse(TemplateEvaluatorDecision, `{{.EvaluatorName}} reviewed a submission for {{.EventName}}.

Decision: {{if .Approved}}Approved{{else}}Rejected{{end}}
Justification: {{.Justification}}
`),
	},
	TemplateEvaluatorAccepted: {
		subject: "A new evaluator for your event has accepted",
		body: mustParse(TemplateEvaluatorAccepted, `{{.EvaluatorName}} ({{.EvaluatorEmail}}) accepted the invitation to evaluate submissions for {{.EventName}}.
`),
	},
	TemplateEvaluatorCredentials: {
		subject: "Your evaluator account",
		body: mustParse(TemplateEvaluatorCredentials, `Hello {{.EvaluatorName}},

An account was created for you to evaluate submissions for {{.EventName}}.

Sign in at {{.LoginURL}} with:

Email:    {{.Email}}
Password: {{.Password}}

Please change the password after your first login.
`),
	},
}

// Render produces the subject and body for a template id.
func Render(name string, data map[string]interface{}) (string, string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var buf strings.Builder
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return tpl.subject, buf.String(), nil
}

func mustParse(name, body string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=zero").Parse(body))
}
