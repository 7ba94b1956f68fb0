package notify

import (
	"fmt"
	"log"
	"os"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSink delivers status-change emails through SendGrid. Delivery is
// fire-and-forget from the core's point of view; failures are logged,
// never surfaced to the request that caused the transition.
type EmailSink struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	baseURL   string
}

func NewEmailSink(apiKey, fromEmail string) *EmailSink {
	return &EmailSink{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  "Clamor",
		fromEmail: fromEmail,
		baseURL:   os.Getenv("CLIENT_URL"),
	}
}

// Handle is subscribed to the event dispatcher.
func (s *EmailSink) Handle(event events.Event) {
	if event.Name != events.FeedbackStatusChange {
		return
	}

	var project models.Project

	if err := db.DB.First(&project, event.ProjectID).Error; err != nil {
		log.Printf("email sink: failed to load project %d: %v", event.ProjectID, err)
		return
	}

	var feedback models.Feedback

	if err := db.DB.First(&feedback, event.FeedbackID).Error; err != nil {
		log.Printf("email sink: failed to load feedback %d: %v", event.FeedbackID, err)
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("User").Where("project_id = ?", project.ID).Find(&memberships).Error; err != nil {
		log.Printf("email sink: failed to load members for project %d: %v", project.ID, err)
		return
	}

	members := make([]Member, 0, len(memberships))

	for _, m := range memberships {
		members = append(members, Member{
			Email:              m.User.Email,
			NotifyStatusChange: m.NotifyStatusChange,
		})
	}

	var votes []models.Vote

	if err := db.DB.Where("feedback_id = ?", feedback.ID).Find(&votes).Error; err != nil {
		log.Printf("email sink: failed to load votes for feedback %d: %v", feedback.ID, err)
		return
	}

	recipients := StatusChangeRecipients(project, members, votes, event.NewStatus)

	for _, r := range recipients {
		if err := s.send(project, feedback, event, r); err != nil {
			log.Printf("email sink: failed to send to %s: %v", r.Email, err)
		}
	}
}

func (s *EmailSink) send(project models.Project, feedback models.Feedback, event events.Event, r Recipient) error {
	subject := fmt.Sprintf("[%s] %q is now %s", project.Name, feedback.Title, event.NewStatus)

	body := fmt.Sprintf("The feedback %q moved from %s to %s.\r\n", feedback.Title, event.OldStatus, event.NewStatus)

	if feedback.Status == "rejected" && feedback.RejectionReason != nil {
		body += fmt.Sprintf("Reason: %s\r\n", *feedback.RejectionReason)
	}

	if !r.IsMember && r.PermissionKey != "" {
		body += fmt.Sprintf("\r\nStop receiving these updates: %s/unsubscribe/%s\r\n", s.baseURL, r.PermissionKey)
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", r.Email)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := s.client.Send(message)

	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	return nil
}
