package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - new feedback
	ColorGreen  = 65280    // #00FF00 - status moved forward
	ColorPurple = 10181046 // #9B59B6 - feedback merged

	WebhookUsername = "Clamor"
)

// WebhookSink forwards feedback events to the project's configured
// Slack/Discord integrations. Like email, failures are logged only.
type WebhookSink struct{}

func NewWebhookSink() *WebhookSink {
	return &WebhookSink{}
}

func (s *WebhookSink) Handle(event events.Event) {
	switch event.Name {
	case events.FeedbackCreated, events.FeedbackStatusChange, events.FeedbackMerged:
	default:
		return
	}

	var project models.Project

	if err := db.DB.First(&project, event.ProjectID).Error; err != nil {
		log.Printf("webhook sink: failed to load project %d: %v", event.ProjectID, err)
		return
	}

	if project.DiscordWebhook == "" && project.SlackWebhook == "" {
		return
	}

	var feedback models.Feedback

	if err := db.DB.First(&feedback, event.FeedbackID).Error; err != nil {
		log.Printf("webhook sink: failed to load feedback %d: %v", event.FeedbackID, err)
		return
	}

	title, description, color := describeEvent(event, feedback)

	if project.DiscordWebhook != "" {
		if err := sendDiscord(project.DiscordWebhook, title, description, color, feedback); err != nil {
			log.Printf("webhook sink: discord: %v", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := sendSlack(project.SlackWebhook, title, description, feedback); err != nil {
			log.Printf("webhook sink: slack: %v", err)
		}
	}
}

func describeEvent(event events.Event, feedback models.Feedback) (string, string, int) {
	switch event.Name {
	case events.FeedbackCreated:
		return "New feedback",
			fmt.Sprintf("%q was submitted.", feedback.Title),
			ColorBlue
	case events.FeedbackMerged:
		return "Feedback merged",
			fmt.Sprintf("%d duplicate(s) were merged into %q.", len(event.SecondaryIDs), feedback.Title),
			ColorPurple
	default:
		return "Status changed",
			fmt.Sprintf("%q moved from %s to %s.", feedback.Title, event.OldStatus, event.NewStatus),
			ColorGreen
	}
}

func sendDiscord(webhookURL, title, description string, color int, feedback models.Feedback) error {
	payload := DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
				Fields: []DiscordWebhookField{
					{Name: "Feedback", Value: feedback.Title, Inline: true},
					{Name: "Status", Value: feedback.Status, Inline: true},
					{Name: "Votes", Value: fmt.Sprintf("%d", feedback.VoteCount), Inline: true},
				},
				Footer:    &DiscordFooter{Text: "Clamor"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return postJSON(webhookURL, payload)
}

func sendSlack(webhookURL, title, description string, feedback models.Feedback) error {
	payload := SlackWebhookRequest{
		Username: WebhookUsername,
		Text:     title,
		Attachments: []SlackAttachment{
			{
				Color: "#3498DB",
				Title: feedback.Title,
				Text:  description,
				Fields: []SlackField{
					{Title: "Status", Value: feedback.Status, Short: true},
					{Title: "Votes", Value: fmt.Sprintf("%d", feedback.VoteCount), Short: true},
				},
				Footer:    "Clamor",
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return postJSON(webhookURL, payload)
}

func postJSON(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)

	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
