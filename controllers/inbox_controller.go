package controller

import (
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachly/models"
	"outreachly/utils"
)

type InboxController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInboxController(db *gorm.DB, logger *log.Logger) *InboxController {
	return &InboxController{
		DB:     db,
		Logger: logger,
	}
}

// SenderSummary is one distinct sending identity derived from outbound
// history, cross-referenced against the configured domains.
type SenderSummary struct {
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	MessageCount int64      `json:"messageCount"`
	LastUsed     *time.Time `json:"lastUsed"`
	IsActive     bool       `json:"isActive"`
	Configured   bool       `json:"configured"`
}

// ListSenders aggregates outbound messages per sender address and merges in
// configured sending domains. Domains that have never sent still appear with
// a zero count so they are visible before their first send.
func (ic *InboxController) ListSenders(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	type senderRow struct {
		FromEmail    string
		MessageCount int64
		LastUsed     time.Time
	}

	var rows []senderRow
	if err := ic.DB.Model(&models.InboxMessage{}).
		Select("from_email, COUNT(*) AS message_count, MAX(received_at) AS last_used").
		Where("workspace_id = ? AND direction = ?", workspaceID, models.DirectionOutbound).
		Group("from_email").
		Find(&rows).Error; err != nil {
		ic.Logger.Printf("Database error aggregating senders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch senders",
		})
	}

	var domains []models.SendingDomain
	if err := ic.DB.Where("workspace_id = ?", workspaceID).Find(&domains).Error; err != nil {
		ic.Logger.Printf("Database error fetching domains: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch domains",
		})
	}

	domainsByEmail := make(map[string]models.SendingDomain, len(domains))
	for _, d := range domains {
		domainsByEmail[strings.ToLower(d.FromEmail)] = d
	}

	senders := make([]SenderSummary, 0, len(rows)+len(domains))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		key := strings.ToLower(row.FromEmail)
		seen[key] = true

		summary := SenderSummary{
			Email:        row.FromEmail,
			MessageCount: row.MessageCount,
			LastUsed:     utils.Pointer(row.LastUsed),
		}
		if d, ok := domainsByEmail[key]; ok {
			summary.Name = d.FromName
			summary.IsActive = d.IsActive
			summary.Configured = true
		} else {
			summary.Name = utils.DisplayNameFromEmail(row.FromEmail)
		}
		senders = append(senders, summary)
	}

	// Configured domains with no history yet
	for _, d := range domains {
		if seen[strings.ToLower(d.FromEmail)] {
			continue
		}
		senders = append(senders, SenderSummary{
			Email:      d.FromEmail,
			Name:       d.FromName,
			IsActive:   d.IsActive,
			Configured: true,
		})
	}

	sort.SliceStable(senders, func(i, j int) bool {
		a, b := senders[i].LastUsed, senders[j].LastUsed
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return c.JSON(fiber.Map{
		"senders": senders,
		"total":   len(senders),
	})
}

// SyncInbox pulls recent messages over IMAP for every domain with a mailbox
// configured. Per-domain failures are logged and skipped so one bad mailbox
// cannot block the rest.
func (ic *InboxController) SyncInbox(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var domains []models.SendingDomain
	if err := ic.DB.Where("workspace_id = ? AND imap_host <> ''", workspaceID).Find(&domains).Error; err != nil {
		ic.Logger.Printf("Database error fetching domains: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch domains",
		})
	}

	synced := 0
	for _, domain := range domains {
		n, err := ic.fetchFromIMAP(&domain, workspaceID)
		if err != nil {
			ic.Logger.Printf("Failed to sync mailbox for domain %d: %v", domain.ID, err)
			continue
		}
		synced += n
	}

	return c.JSON(fiber.Map{
		"success": true,
		"synced":  synced,
	})
}

func (ic *InboxController) fetchFromIMAP(domain *models.SendingDomain, workspaceID uint) (int, error) {
	password, err := utils.Decrypt(domain.IMAPPassword)
	if err != nil {
		return 0, fmt.Errorf("failed to decrypt IMAP password: %w", err)
	}

	imapAddr := fmt.Sprintf("%s:%d", domain.IMAPHost, domain.IMAPPort)
	imapClient, err := client.DialTLS(imapAddr, &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         domain.IMAPHost,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(domain.IMAPUsername, password); err != nil {
		return 0, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	mbox, err := imapClient.Select("INBOX", true)
	if err != nil {
		return 0, fmt.Errorf("failed to select mailbox: %w", err)
	}
	if mbox.Messages == 0 {
		return 0, nil
	}

	// Last 50 messages
	from := uint32(1)
	if mbox.Messages > 50 {
		from = mbox.Messages - 49
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY.PEEK[]")}, messages)
	}()

	stored := 0
	for msg := range messages {
		if err := ic.storeIMAPMessage(msg, workspaceID, domain); err != nil {
			ic.Logger.Printf("Failed to store message %d: %v", msg.SeqNum, err)
			continue
		}
		stored++
	}

	if err := <-done; err != nil {
		return stored, fmt.Errorf("error during fetch: %w", err)
	}
	return stored, nil
}

func (ic *InboxController) storeIMAPMessage(msg *imap.Message, workspaceID uint, domain *models.SendingDomain) error {
	if msg.Envelope == nil {
		return fmt.Errorf("message has no envelope")
	}

	// Already ingested
	var count int64
	ic.DB.Model(&models.InboxMessage{}).
		Where("workspace_id = ? AND message_id = ?", workspaceID, msg.Envelope.MessageId).
		Count(&count)
	if count > 0 {
		return nil
	}

	snippet := extractSnippet(msg)

	fromEmail := ""
	if len(msg.Envelope.From) > 0 {
		fromEmail = msg.Envelope.From[0].Address()
	}
	direction := models.DirectionInbound
	if strings.EqualFold(fromEmail, domain.FromEmail) {
		direction = models.DirectionOutbound
	}

	message := models.InboxMessage{
		WorkspaceID: workspaceID,
		MessageID:   msg.Envelope.MessageId,
		FromEmail:   fromEmail,
		ToEmail:     domain.FromEmail,
		Subject:     msg.Envelope.Subject,
		Snippet:     snippet,
		Direction:   direction,
		ReceivedAt:  msg.Envelope.Date,
	}
	return ic.DB.Create(&message).Error
}

// extractSnippet pulls the first text part of the message body, trimmed.
func extractSnippet(msg *imap.Message) string {
	if msg.Body == nil {
		return ""
	}
	section := &imap.BodySectionName{Peek: true}
	literal := msg.GetBody(section)
	if literal == nil {
		return ""
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return ""
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return ""
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if strings.Contains(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return ""
				}
				snippet := strings.TrimSpace(string(b))
				if len(snippet) > 200 {
					snippet = snippet[:200]
				}
				return snippet
			}
		}
	}
	return ""
}
