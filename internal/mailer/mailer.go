package mailer

import (
	"bytes"
	"text/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/talkincode/toughrent/config"
	"github.com/talkincode/toughrent/internal/domain"
)

const confirmSubject = "Potwierdzenie wypożyczenia sprzętu"

const confirmBody = `Dzień dobry {{.Name}},

potwierdzamy rezerwację sprzętu na wyjazd {{.ConferenceCode}}.
{{if .PickupDate}}Data odbioru: {{.PickupDate}}
{{end}}{{if .ReturnDate}}Planowany zwrot: {{.ReturnDate}}
{{end}}
Zarezerwowany sprzęt:
{{range .Items}}  - {{.}}
{{end}}
Pozdrawiamy,
Wypożyczalnia`

const reminderSubject = "Przypomnienie o zwrocie sprzętu"

const reminderBody = `Dzień dobry {{.Name}},

termin zwrotu sprzętu z wyjazdu {{.ConferenceCode}} minął {{.ReturnDate}}.
Prosimy o jak najszybszy zwrot.

Pozdrawiamy,
Wypożyczalnia`

var (
	confirmTpl  = template.Must(template.New("confirm").Parse(confirmBody))
	reminderTpl = template.Must(template.New("reminder").Parse(reminderBody))
)

// Mailer sends notification mails over SMTP. Every send is best effort: a
// failure is logged and otherwise invisible to the caller.
type Mailer struct {
	cfg config.SmtpConfig
}

func NewMailer(cfg config.SmtpConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// OrderConfirmed mails the reservation summary to the order's owner.
func (m *Mailer) OrderConfirmed(user *domain.SysUser, order *domain.Order,
	products []domain.Product, komplets []domain.Komplet) {
	if user.Email == "" {
		zap.L().Warn("order confirmation skipped, user has no email",
			zap.Int64("order_id", order.ID), zap.String("username", user.Username))
		return
	}
	items := make([]string, 0, len(products)+len(komplets))
	for _, p := range products {
		items = append(items, p.Label())
	}
	for _, k := range komplets {
		items = append(items, k.Name)
	}
	data := map[string]interface{}{
		"Name":           displayName(user),
		"ConferenceCode": order.ConferenceCode,
		"PickupDate":     formatDate(order.PickupDate),
		"ReturnDate":     formatDate(order.ReturnDate),
		"Items":          items,
	}
	m.send(user.Email, confirmSubject, confirmTpl, data, order.ID)
}

// ReturnReminder mails an overdue notice to the order's owner.
func (m *Mailer) ReturnReminder(user *domain.SysUser, order *domain.Order) {
	if user.Email == "" {
		return
	}
	data := map[string]interface{}{
		"Name":           displayName(user),
		"ConferenceCode": order.ConferenceCode,
		"ReturnDate":     formatDate(order.ReturnDate),
	}
	m.send(user.Email, reminderSubject, reminderTpl, data, order.ID)
}

func (m *Mailer) send(to, subject string, tpl *template.Template, data interface{}, orderID int64) {
	if !m.cfg.Enabled {
		zap.L().Info("smtp disabled, mail skipped",
			zap.String("to", to), zap.String("subject", subject))
		return
	}
	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		zap.L().Error("render mail body", zap.Error(err))
		return
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body.String())

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		zap.L().Error("send mail failed",
			zap.String("to", to),
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return
	}
	zap.L().Info("mail sent", zap.String("to", to), zap.String("subject", subject))
}

func displayName(user *domain.SysUser) string {
	if user.Realname != "" {
		return user.Realname
	}
	return user.Username
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
