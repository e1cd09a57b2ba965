// Package mail e-mails the ops team when a new lead arrives.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/hoclconnect/leads/internal/domain"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier implements port.LeadNotifier over SMTP.
type Notifier struct {
	sender Sender
	from   string
	to     []string
}

// NewNotifier builds a Notifier that dials host:port with the given credentials.
func NewNotifier(host string, port int, user, password, from string, to []string) *Notifier {
	return NewNotifierWithSender(gomail.NewDialer(host, port, user, password), from, to)
}

// NewNotifierWithSender builds a Notifier around an existing Sender.
func NewNotifierWithSender(s Sender, from string, to []string) *Notifier {
	return &Notifier{sender: s, from: from, to: to}
}

// Name implements port.LeadNotifier.
func (n *Notifier) Name() string { return "smtp" }

// NotifyLeadCreated sends the "new lead" e-mail. gomail has no context
// support, so ctx is only checked before dialing.
func (n *Notifier) NotifyLeadCreated(ctx context.Context, lead *domain.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := n.compose(lead)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send lead mail: %w", err)
	}
	return nil
}

func (n *Notifier) compose(lead *domain.Lead) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := leadTemplate.Execute(&body, leadView(lead)); err != nil {
		return nil, fmt.Errorf("render lead mail: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to...)
	if email := domain.Deref(lead.Email); email != "" {
		m.SetHeader("Reply-To", email)
	}
	m.SetHeader("Subject", subject(lead))
	m.SetBody("text/html", body.String())
	return m, nil
}

func subject(lead *domain.Lead) string {
	who := domain.Deref(lead.Company)
	if who == "" {
		who = domain.Deref(lead.ContactName)
	}
	if who == "" {
		who = "unknown company"
	}
	return fmt.Sprintf("New %s lead (score %d): %s", lead.Intent, lead.Score, who)
}

type row struct {
	Label, Value string
}

func leadView(lead *domain.Lead) []row {
	rows := []row{
		{"Lead ID", lead.ID},
		{"Intent", string(lead.Intent)},
		{"Industry", lead.Industry},
	}
	for _, r := range []struct {
		label string
		v     *string
	}{
		{"Amount", lead.AmountBand},
		{"Cadence", lead.Cadence},
		{"Timeline", lead.Timeline},
		{"Format", lead.Format},
		{"Scope", lead.PackagingGoal},
		{"Region", lead.RegionPref},
		{"Company", lead.Company},
		{"Contact", lead.ContactName},
		{"Email", lead.Email},
		{"Phone", lead.Phone},
		{"Notes", lead.Notes},
	} {
		if v := domain.Deref(r.v); v != "" {
			rows = append(rows, row{r.label, v})
		}
	}
	return append(rows, row{"Score", fmt.Sprint(lead.Score)})
}

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>New lead received</h2>
<table>
{{- range .}}
<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
<p>Introduce best-fit partners within 1-3 business days.</p>
`))
