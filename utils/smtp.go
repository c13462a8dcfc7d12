package utils

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/likexian/whois"
	"gopkg.in/gomail.v2"

	"outreachly/models"
)

// TestResult is the outcome of one connectivity check. A failed check is a
// normal, reported result, never an error return.
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DomainTestReport aggregates the checks run against a sending domain.
type DomainTestReport struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Format    TestResult `json:"format"`
	MX        TestResult `json:"mx"`
	SMTP      TestResult `json:"smtp"`
	EmailSent bool       `json:"email_sent"`
	WHOIS     string     `json:"whois,omitempty"`
}

// ValidateMXRecords checks if a domain has valid MX records
func ValidateMXRecords(email string) (bool, error) {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return false, fmt.Errorf("invalid email format")
	}

	mxRecords, err := net.LookupMX(parts[1])
	if err != nil {
		return false, err
	}

	return len(mxRecords) > 0, nil
}

// TestDomainConnection probes a sending domain's SMTP submission endpoint.
// Every failure mode is folded into the report; the only error surface is
// the report itself.
func TestDomainConnection(domain models.SendingDomain, password, testRecipient string) DomainTestReport {
	report := DomainTestReport{}

	if err := checkmail.ValidateFormat(domain.FromEmail); err != nil {
		report.Format.Error = fmt.Sprintf("Invalid from email: %v", err)
		report.Message = "From address failed format validation"
		return report
	}
	report.Format.Success = true

	if hasMX, err := ValidateMXRecords(domain.FromEmail); err != nil || !hasMX {
		report.MX.Error = "Domain MX records not found or invalid"
		report.Message = "MX lookup failed for " + domain.Domain
		return report
	}
	report.MX.Success = true

	report.SMTP = TestSMTPConnection(domain, password)
	if !report.SMTP.Success {
		report.Message = "SMTP connection failed"
		return report
	}

	if testRecipient != "" {
		report.EmailSent = sendTestEmail(domain, password, testRecipient)
	}

	// Advisory registrar info, best effort
	if info, err := whois.Whois(domain.Domain); err == nil {
		if len(info) > 2000 {
			info = info[:2000]
		}
		report.WHOIS = info
	}

	report.Success = true
	report.Message = "Connection test passed"
	return report
}

// TestSMTPConnection tests the SMTP server connection
func TestSMTPConnection(domain models.SendingDomain, password string) TestResult {
	result := TestResult{Success: false}

	logContext := map[string]interface{}{
		"smtp_host": domain.SMTPHost,
		"smtp_port": domain.SMTPPort,
		"username":  domain.SMTPUsername,
	}

	if domain.SMTPHost == "" {
		result.Error = "No SMTP host configured"
		return result
	}

	smtpAddr := fmt.Sprintf("%s:%d", domain.SMTPHost, domain.SMTPPort)

	var auth smtp.Auth
	if domain.SMTPUsername != "" && password != "" {
		auth = smtp.PlainAuth("", domain.SMTPUsername, password, domain.SMTPHost)
	}

	switch strings.ToUpper(domain.Encryption) {
	case "SSL", "TLS":
		tlsConfig := &tls.Config{
			InsecureSkipVerify: false,
			ServerName:         domain.SMTPHost,
		}

		conn, err := tls.Dial("tcp", smtpAddr, tlsConfig)
		if err != nil {
			result.Error = fmt.Sprintf("Failed to establish TLS connection: %v", err)
			LogError("smtp_tls_connection", err, logContext)
			return result
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, domain.SMTPHost)
		if err != nil {
			result.Error = fmt.Sprintf("Failed to create SMTP client: %v", err)
			LogError("smtp_client_creation", err, logContext)
			return result
		}
		defer client.Close()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				result.Error = fmt.Sprintf("SMTP authentication failed: %v", err)
				LogError("smtp_authentication", err, logContext)
				return result
			}
		}
		result.Success = true

	case "STARTTLS":
		client, err := smtp.Dial(smtpAddr)
		if err != nil {
			result.Error = fmt.Sprintf("Failed to connect to SMTP server: %v", err)
			LogError("smtp_connection", err, logContext)
			return result
		}
		defer client.Close()

		if err := client.StartTLS(&tls.Config{
			InsecureSkipVerify: false,
			ServerName:         domain.SMTPHost,
		}); err != nil {
			result.Error = fmt.Sprintf("Failed to start TLS: %v", err)
			LogError("smtp_starttls", err, logContext)
			return result
		}

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				result.Error = fmt.Sprintf("SMTP authentication failed: %v", err)
				LogError("smtp_authentication", err, logContext)
				return result
			}
		}
		result.Success = true

	default:
		// No encryption
		client, err := smtp.Dial(smtpAddr)
		if err != nil {
			result.Error = fmt.Sprintf("Failed to connect to SMTP server: %v", err)
			LogError("smtp_connection", err, logContext)
			return result
		}
		defer client.Close()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				result.Error = fmt.Sprintf("SMTP authentication failed: %v", err)
				LogError("smtp_authentication", err, logContext)
				return result
			}
		}
		result.Success = true
	}

	LogEvent("smtp_test_success", logContext)
	return result
}

// sendTestEmail delivers a short test message through the domain's SMTP
// config once the handshake has succeeded.
func sendTestEmail(domain models.SendingDomain, password, toEmail string) bool {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", domain.FromEmail, domain.FromName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Connection test from "+domain.Domain)
	m.SetBody("text/plain", "This message confirms your sending domain is configured correctly.")

	d := gomail.NewDialer(domain.SMTPHost, domain.SMTPPort, domain.SMTPUsername, password)
	if strings.EqualFold(domain.Encryption, "SSL") || strings.EqualFold(domain.Encryption, "TLS") {
		d.SSL = true
	}

	if err := d.DialAndSend(m); err != nil {
		LogError("test_email_send", err, map[string]interface{}{
			"domain": domain.Domain,
			"to":     toEmail,
		})
		return false
	}
	return true
}
