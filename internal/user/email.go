package user

import (
	"bytes"
	htmltemplate "html/template"
	"math"
	"text/template"
	"time"

	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/mailer"
)

const resetEmailSubject = "Password Reset Link"

// resetEmailParams is passed as data when executing the reset email templates.
type resetEmailParams struct {
	Name    string
	Link    string
	Minutes int
}

var resetEmailHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<p>Hello {{.Name}},</p>
<p>Click the link below to reset your password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link is valid for {{.Minutes}} minutes.</p>
<p>If you did not request a password reset, you can ignore this email.</p>
`))

var resetEmailText = template.Must(template.New("reset.txt").Parse(`Hello {{.Name}},

Open the link below to reset your password:

{{.Link}}

This link is valid for {{.Minutes}} minutes.

If you did not request a password reset, you can ignore this email.
`))

func renderResetEmail(to, name, link string, ttl time.Duration) (mailer.Message, error) {
	p := resetEmailParams{Name: name, Link: link, Minutes: int(math.Round(ttl.Minutes()))}
	var html, text bytes.Buffer
	if err := resetEmailHTML.Execute(&html, p); err != nil {
		return mailer.Message{}, err
	}
	if err := resetEmailText.Execute(&text, p); err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{To: to, Subject: resetEmailSubject, HTML: html.String(), Text: text.String()}, nil
}
