package report

import "html/template"

var htmlReport = template.Must(template.New("report").Parse(`{{range .}}<h3>{{.Title}}</h3>
<table border="1" class="dataframe">
  <thead>
    <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
  </thead>
  <tbody>
{{range .Rows}}    <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}  </tbody>
</table>
{{end}}`))

type htmlSection struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func newHTMLSection(s section) htmlSection {
	return htmlSection{Title: s.title, Columns: s.ds.Columns, Rows: cells(s.ds)}
}
