package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Email templates, keyed by name. Subjects and bodies take the same context
// map. Texts mirror the platform's French user-facing copy.
type emailTemplate struct {
	subject *texttemplate.Template
	body    *template.Template
}

var emailTemplates = map[string]emailTemplate{
	"application_approved": newEmailTemplate(
		"application_approved",
		`Candidature acceptée - {{.mission_name}}`,
		`<html><body>
<h2>Candidature Acceptée</h2>
<p>Bonjour {{.volunteer_name}},</p>
<p>Votre candidature pour la mission "{{.mission_name}}" a été acceptée!</p>
<p><a href="{{.frontend_url}}/missions/{{.mission_id}}">Voir la mission</a></p>
</body></html>`,
	),
	"application_rejected": newEmailTemplate(
		"application_rejected",
		`Candidature refusée - {{.mission_name}}`,
		`<html><body>
<h2>Candidature Refusée</h2>
<p>Bonjour {{.volunteer_name}},</p>
<p>Votre candidature pour la mission "{{.mission_name}}" a été refusée.</p>
<p><strong>Raison:</strong> {{.rejection_reason}}</p>
</body></html>`,
	),
	"volunteer_joined": newEmailTemplate(
		"volunteer_joined",
		`Nouveau bénévole - {{.mission_name}}`,
		`<html><body>
<h2>Nouveau Bénévole</h2>
<p>Bonjour {{.association_name}},</p>
<p>{{.volunteer_name}} a rejoint la mission "{{.mission_name}}".</p>
<p>Participants actuels: {{.current_count}}/{{.max_capacity}}</p>
</body></html>`,
	),
	"volunteer_left": newEmailTemplate(
		"volunteer_left",
		`Bénévole retiré - {{.mission_name}}`,
		`<html><body>
<h2>Bénévole Retiré</h2>
<p>Bonjour {{.association_name}},</p>
<p>{{.volunteer_name}} s'est désisté de la mission "{{.mission_name}}".</p>
<p>Participants actuels: {{.current_count}}/{{.max_capacity}}</p>
</body></html>`,
	),
	"capacity_reached": newEmailTemplate(
		"capacity_reached",
		`Capacité minimale atteinte - {{.mission_name}}`,
		`<html><body>
<h2>Capacité Minimale Atteinte</h2>
<p>Bonjour {{.association_name}},</p>
<p>La mission "{{.mission_name}}" a atteint sa capacité minimale.</p>
<p>Participants actuels: {{.current_count}}/{{.max_capacity}}</p>
</body></html>`,
	),
}

func newEmailTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name + "_body").Parse(body)),
	}
}

func renderEmail(templateName string, context map[string]interface{}) (string, string, error) {
	tmpl, exists := emailTemplates[templateName]

	if !exists {
		return "", "", fmt.Errorf("unknown email template %q", templateName)
	}

	var subject bytes.Buffer

	if err := tmpl.subject.Execute(&subject, context); err != nil {
		return "", "", fmt.Errorf("failed to render subject for %q: %w", templateName, err)
	}

	var body bytes.Buffer

	if err := tmpl.body.Execute(&body, context); err != nil {
		return "", "", fmt.Errorf("failed to render body for %q: %w", templateName, err)
	}

	return subject.String(), body.String(), nil
}
