package handler

import (
	"html/template"
	"net/http"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>opslab</title></head>
<body>
<h1>opslab monitoring demo</h1>
<h2>Endpoints</h2>
<ul>
{{- range .Endpoints}}
<li><a href="{{.Path}}">{{.Path}}</a> - {{.Description}}</li>
{{- end}}
</ul>
{{- if .Links}}
<h2>Monitoring stack</h2>
<ul>
{{- range .Links}}
<li><a href="{{.URL}}">{{.Name}}</a></li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))

type homeEndpoint struct {
	Path        string
	Description string
}

type homeLink struct {
	Name string
	URL  string
}

type homePage struct {
	Endpoints []homeEndpoint
	Links     []homeLink
}

func (h *Handler) homePage() homePage {
	p := homePage{
		Endpoints: []homeEndpoint{
			{"/health", "Health check"},
			{h.cfg.MetricsPath, "Prometheus metrics"},
			{"/simulate-load", "Simulate CPU load"},
			{"/simulate-error", "Simulate random errors"},
			{"/user-activity", "Simulate user activity"},
		},
	}
	for _, l := range []homeLink{
		{"Prometheus", h.cfg.Links.Prometheus},
		{"Grafana", h.cfg.Links.Grafana},
		{"cAdvisor", h.cfg.Links.CAdvisor},
		{"Node Exporter", h.cfg.Links.NodeExporter},
	} {
		if l.URL != "" {
			p.Links = append(p.Links, l)
		}
	}
	return p
}

// handleHome handles GET /.
func (h *Handler) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, h.homePage()); err != nil {
		h.logger.Error("failed to render home page", "error", err)
	}
}
