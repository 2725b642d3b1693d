package httpapi

import (
	"html/template"
	"net/http"

	"github.com/ufacm/checkin"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.Title}}</title></head><body>{{end}}
{{define "foot"}}</body></html>{{end}}

{{define "landing"}}{{template "head" .}}
<h1>UF ACM Check-In</h1>
<p>Sign up with your {{.Domain}} address to check in to events.</p>
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
<h1>Welcome{{with .User.Metadata.FirstName}}, {{.}}{{end}}</h1>
<p>Signed in as {{.User.Email}}</p>
<p><a href="/organizations">Organizations</a></p>
<form method="post" action="/auth/v1/logout"><button type="submit">Sign out</button></form>
{{template "foot" .}}{{end}}

{{define "organizations"}}{{template "head" .}}
<h1>Organizations</h1>
{{if .Organizations}}<ul>
{{range .Organizations}}<li data-slug="{{.Slug}}">{{.Name}}</li>
{{end}}</ul>{{else}}<p>No organizations yet.</p>{{end}}
{{template "foot" .}}{{end}}
`))

type pageData struct {
	Title         string
	Domain        string
	User          *checkin.User
	Organizations []Organization
}

func renderPage(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = pages.ExecuteTemplate(w, name, data)
}
