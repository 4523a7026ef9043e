package email

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var sectorCompletedTmpl = template.Must(template.New("sector_completed").Parse(`
<p>Olá, {{.Name}}.</p>
<p>O setor <strong>{{.Sector}}</strong> concluiu todas as tarefas da ordem de
serviço <strong>{{.Code}}</strong>.</p>
<p><a href="{{.Link}}">Abrir ordem de serviço</a></p>
`))

var orderFinalizedTmpl = template.Must(template.New("order_finalized").Parse(`
<p>Olá, {{.Name}}.</p>
<p>Todas as tarefas foram concluídas e a ordem de serviço
<strong>{{.Code}}</strong> foi finalizada.</p>
<p><a href="{{.Link}}">Abrir ordem de serviço</a></p>
`))

var overdueReminderTmpl = template.Must(template.New("overdue_reminder").Parse(`
<p>Olá, {{.Name}}.</p>
<p>Você possui tarefas em atraso:</p>
<ul>
{{range .Tasks}}<li><strong>{{.Title}}</strong> ({{.Sector}}) — vencida em {{.Due}}</li>
{{end}}</ul>
`))

// OverdueItem is one line of the overdue reminder.
type OverdueItem struct {
	Title  string
	Sector string
	Due    string
}

// SectorCompleted renders the message sent to the order creator when a
// sector closes.
func SectorCompleted(name, code, sector, baseURL string) (string, string) {
	subject := fmt.Sprintf("Setor %s concluído — %s", sector, code)
	return subject, render(sectorCompletedTmpl, map[string]any{
		"Name":   name,
		"Code":   code,
		"Sector": sector,
		"Link":   orderLink(baseURL, code),
	})
}

// OrderFinalized renders the message sent when an order reaches FINALIZADO.
func OrderFinalized(name, code, baseURL string) (string, string) {
	subject := fmt.Sprintf("Ordem de serviço finalizada — %s", code)
	return subject, render(orderFinalizedTmpl, map[string]any{
		"Name": name,
		"Code": code,
		"Link": orderLink(baseURL, code),
	})
}

// OverdueReminder renders the daily reminder listing a user's overdue tasks.
func OverdueReminder(name string, items []OverdueItem) (string, string) {
	subject := fmt.Sprintf("Você tem %d tarefa(s) em atraso", len(items))
	return subject, render(overdueReminderTmpl, map[string]any{
		"Name":  name,
		"Tasks": items,
	})
}

// FormatDue formats a due date the way the reminder shows it.
func FormatDue(t time.Time) string {
	return t.Format("02/01/2006")
}

func orderLink(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/service-orders/" + code
}

func render(tmpl *template.Template, data any) string {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		// Templates are static and parsed at init; execution only fails on
		// writer errors, which strings.Builder never returns.
		return ""
	}
	return sb.String()
}
