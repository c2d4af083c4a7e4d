package report

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (r *Report) composeMail(cfg EmailConfig, subject, filename string) (*email.Email, error) {
	var csvBuf bytes.Buffer
	err := r.WriteCSV(&csvBuf)
	if err != nil {
		return nil, err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Suisyou <%s>", cfg.EmailAddress)
	mail.To = cfg.To
	mail.Subject = subject
	mail.Text = []byte("添付の在庫補充レポートをご確認ください。\n")
	_, err = mail.Attach(&csvBuf, filename, "text/csv")
	if err != nil {
		return nil, err
	}
	return mail, nil
}

// Email sends the report as a CSV attachment to the configured
// recipients.
func (r *Report) Email(cfg EmailConfig, subject, filename string) error {
	mail, err := r.composeMail(cfg, subject, filename)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	err = mail.Send(addr, smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	return err
}
