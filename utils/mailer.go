package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"
	"time"
)

// Mailer delivers the issued key to the buyer. Delivery is synchronous and
// single-shot: there is no retry or queue, a failure is returned to the
// caller who decides what to surface.

func getMailConfig() (host string, port, from, user, pass string, err error) {
	host = os.Getenv("EMAIL_HOST")
	port = getenvDefault("EMAIL_PORT", "587")
	user = os.Getenv("EMAIL_USER")
	pass = os.Getenv("EMAIL_PASS")
	from = getenvDefault("EMAIL_FROM", user)
	if host == "" || user == "" || pass == "" {
		return "", "", "", "", "", fmt.Errorf("EMAIL_HOST, EMAIL_USER and EMAIL_PASS must be set")
	}
	return host, port, from, user, pass, nil
}

// SendKeyEmail sends the plain-text key delivery mail over authenticated
// SMTP with STARTTLS.
func SendKeyEmail(ctx context.Context, to, keyCode, productName string) error {
	host, port, from, user, pass, err := getMailConfig()
	if err != nil {
		return err
	}

	msg := buildKeyMessage(from, to, keyCode, productName)

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if err := client.Auth(smtp.PlainAuth("", user, pass, host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

func buildKeyMessage(from, to, keyCode, productName string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your CD Key for " + productName + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Thank you for your purchase! Your CD Key is: " + keyCode + "\r\n")
	return b.String()
}
