package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/models"
)

// Mailer отправляет уведомления пользователям.
type Mailer interface {
	SendVerificationEmail(to, name, token string) error
	SendReunionEmail(to, name string, pet *models.Pet) error
}

const verificationTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Welcome to PetFinder, {{.Name}}!</h2>
	<p>Please confirm your email address to activate your account.</p>
	<p>
		<a href="{{.Link}}" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">
			Verify Email
		</a>
	</p>
	<p>The link is valid for 24 hours. If you did not sign up, you can safely ignore this message.</p>
</div>
`

const reunionTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Great news, {{.Name}}!</h2>
	<p>Your report about <strong>{{.PetName}}</strong> has been marked as reunited.</p>
	<ul>
		<li>Type: {{.PetType}}</li>
		<li>Breed: {{.Breed}}</li>
		<li>Location: {{.Location}}</li>
	</ul>
	<p>We are happy the story ended well. The listing is no longer shown in active search results.</p>
</div>
`

// EmailService отправляет письма через SMTP. При пустом хосте работает в
// режиме заглушки: письма только логируются.
type EmailService struct {
	host        string
	port        string
	username    string
	password    string
	from        string
	frontendURL string

	verification *template.Template
	reunion      *template.Template
}

// NewEmailService создаёт почтовый сервис.
func NewEmailService(host, port, username, password, from, frontendURL string) *EmailService {
	return &EmailService{
		host:         host,
		port:         port,
		username:     username,
		password:     password,
		from:         from,
		frontendURL:  frontendURL,
		verification: template.Must(template.New("verification").Parse(verificationTemplate)),
		reunion:      template.Must(template.New("reunion").Parse(reunionTemplate)),
	}
}

// SendVerificationEmail отправляет письмо со ссылкой подтверждения email.
func (s *EmailService) SendVerificationEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	var body bytes.Buffer
	if err := s.verification.Execute(&body, map[string]string{"Name": name, "Link": link}); err != nil {
		return fmt.Errorf("email service: render verification %w", err)
	}

	return s.send(to, "Verify your PetFinder account", body.String())
}

// SendReunionEmail отправляет поздравление владельцу воссоединённого питомца.
func (s *EmailService) SendReunionEmail(to, name string, pet *models.Pet) error {
	var body bytes.Buffer
	data := map[string]string{
		"Name":     name,
		"PetName":  pet.Name,
		"PetType":  pet.Type,
		"Breed":    pet.Breed,
		"Location": pet.LocationArea + ", " + pet.LocationCity,
	}
	if err := s.reunion.Execute(&body, data); err != nil {
		return fmt.Errorf("email service: render reunion %w", err)
	}

	return s.send(to, "Your pet has been reunited!", body.String())
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	if s.host == "" {
		logger.Log.WithFields(map[string]interface{}{
			"to":      to,
			"subject": subject,
		}).Info("SMTP не настроен, письмо не отправлено")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.from, to, subject, htmlBody)

	addr := s.host + ":" + s.port
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("email service: send %w", err)
	}

	return nil
}
