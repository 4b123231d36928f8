package api

import (
	"html/template"
	"io"

	"FinDash/internal/domain/models"
)

type symbolOption struct {
	Symbol   string
	Selected bool
}

type symbolSection struct {
	Symbol string
	Error  string
	Charts chartPair
}

type pageData struct {
	Options  []symbolOption
	Window   int
	Horizon  int
	Sections []symbolSection
	Footer   string
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Personal Finance Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.banner { background: #fde2e1; color: #8a1c17; padding: .8em 1em; border-radius: 4px; }
iframe { border: 0; width: 1000px; height: 380px; display: block; }
footer { margin-top: 3em; color: #777; }
</style>
</head>
<body>
<h1>Personal Finance Dashboard</h1>
<form method="get" action="/">
{{range .Options}}<label><input type="checkbox" name="symbols" value="{{.Symbol}}"{{if .Selected}} checked{{end}}> {{.Symbol}}</label>
{{end}}<label>Window <input type="number" name="window" value="{{.Window}}" min="2" max="200"></label>
<label>Horizon <input type="number" name="horizon" value="{{.Horizon}}" min="1" max="200"></label>
<button type="submit">Show</button>
</form>
{{range .Sections}}<section>
<h2>{{.Symbol}}</h2>
{{if .Error}}<div class="banner">{{.Error}}</div>
{{else}}<iframe title="{{.Symbol}} close" srcdoc="{{.Charts.Close}}"></iframe>
<iframe title="{{.Symbol}} moving average" srcdoc="{{.Charts.Average}}"></iframe>
{{end}}</section>
{{end}}<footer>{{.Footer}}</footer>
</body>
</html>
`))

// buildPage renders charts for every healthy view. A view whose charts fail to render
// is shown as an error banner like any other per-symbol failure.
func buildPage(allowed []string, req models.DashboardRequest, selected []string, views []models.SymbolView, footer string) (pageData, []error) {
	sel := make(map[string]bool, len(selected))
	for _, s := range selected {
		sel[s] = true
	}
	data := pageData{Window: req.Window, Horizon: req.Horizon, Footer: footer}
	for _, s := range allowed {
		data.Options = append(data.Options, symbolOption{Symbol: s, Selected: sel[s]})
	}

	var errs []error
	for _, v := range views {
		sec := symbolSection{Symbol: v.Symbol, Error: v.Error}
		if sec.Error == "" {
			pair, err := renderCharts(v)
			if err != nil {
				errs = append(errs, err)
				sec.Error = "Could not render charts for " + v.Symbol
			}
			sec.Charts = pair
		}
		data.Sections = append(data.Sections, sec)
	}
	return data, errs
}

func writePage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}
