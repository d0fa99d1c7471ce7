// Package email renders named templates and delivers them through a
// transactional email HTTP API. Delivery results are logged by callers;
// nothing in the request path waits on them.
package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Subjects maps a template name to its subject line.
var Subjects = map[string]string{
	"confirmEmail":      "Email Confirmation",
	"forgotPassword":    "Password Reset",
	"resetPassword":     "Your password was reset",
	"changedPassword":   "Your password changed",
	"passwordlessLogin": "Your Magic Link",
}

var templates = map[string]*template.Template{
	"confirmEmail": parse("confirmEmail", `
<p>Hi {{.name}},</p>
<p>Your confirmation code is <strong>{{.code}}</strong>.</p>
<p>The code expires in {{.expiresInMinutes}} minutes.</p>`),

	"forgotPassword": parse("forgotPassword", `
<p>Hi {{.name}},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{.link}}">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>`),

	"resetPassword": parse("resetPassword", `
<p>Hi {{.name}},</p>
<p>Your password was reset successfully.</p>`),

	"changedPassword": parse("changedPassword", `
<p>Hi {{.name}},</p>
<p>Your password was changed. If this wasn't you, reset it immediately.</p>`),

	"passwordlessLogin": parse("passwordlessLogin", `
<p>Hi {{.name}},</p>
<p>Use this link to sign in without a password:</p>
<p><a href="{{.link}}">Sign in</a></p>`),
}

func parse(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

// Render expands the named template with the payload and returns HTML.
func Render(name string, payload map[string]string) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
