package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var leadTemplate = template.Must(template.New("lead").Parse(`<p>{{if .Name}}Hi {{.Name}},{{else}}Hi there,{{end}}</p>

<p>Thank you for chatting with {{.Persona}} today.</p>
{{if .Challenges}}
<p>We discussed the following challenges you are facing:</p>
<ul>
{{- range .Challenges}}
<li>{{.}}</li>
{{- end}}
</ul>
{{else}}
<p>We had a great discussion.</p>
{{end}}
<p>While I am not optimized to provide recommendations, I'm writing to put you in touch with <strong>{{.Consultant}}</strong> (cc'd), who will review this conversation and reach out with personalized advice specific to your business needs.</p>
<p>I think the two of you will do great things together.{{if .ConsultantPhone}} Feel free to reach out to them directly at {{.ConsultantPhone}}.{{end}}</p>

<p>Compiled with care,<br>
{{.Persona}}<br>
{{if .CompanyURL}}<a href="{{.CompanyURL}}">{{.Company}}</a>{{else}}{{.Company}}{{end}}</p>
`))

type leadView struct {
	Name            string
	Persona         string
	Challenges      []string
	Consultant      string
	ConsultantPhone string
	Company         string
	CompanyURL      string
}

func renderLead(v leadView) (string, error) {
	var buf bytes.Buffer
	if err := leadTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render lead email: %w", err)
	}
	return buf.String(), nil
}
