package compose

import "html/template"

// shellTemplate is the shared document shell: head metadata, body wrapper,
// and exactly one skip-navigation anchor injected immediately before the
// composed body. The anchor is a structural guarantee of the shell, not a
// per-section opt-in.
var shellTemplate = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>{{.Title}}</title>
{{if .Description}}<meta name="description" content="{{.Description}}" />
{{end}}<link rel="icon" href="/favicon.svg" type="image/svg+xml" />
<link rel="stylesheet" href="{{.StylesheetHref}}" />
</head>
<body>
<a class="skip-link" href="#{{.SkipTarget}}">Skip to content</a>
<div id="page">
{{.Body}}</div>
{{if .ScriptSrc}}<script defer src="{{.ScriptSrc}}"></script>
{{end}}</body>
</html>
`))

type shellData struct {
	Lang           string
	Title          string
	Description    string
	StylesheetHref string
	ScriptSrc      string
	SkipTarget     string
	Body           template.HTML
}
