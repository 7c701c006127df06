package slack

import (
	"bytes"
	"certpin/config"
	"certpin/pkg/model"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	colorOK      = "#36a64f"
	colorEmpty   = "#ffcc00"
	colorFailure = "#ff5400"
)

// AttachmentField
type AttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment
type Attachment struct {
	Color  string            `json:"color"`
	Title  string            `json:"title,omitempty"`
	Text   string            `json:"text,omitempty"`
	Fields []AttachmentField `json:"fields"`
}

// Payload represents a message to send to Slack
type Payload struct {
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewPayload generates a new Slack Payload summarising a run
func NewPayload(config *config.Configuration, results []*model.Result) Payload {
	var attachments []Attachment
	var failed int

	for _, r := range results {
		attachment := Attachment{Title: r.Host}
		switch {
		case r.Failure != nil:
			failed++
			attachment.Color = colorFailure
			attachment.Text = "Error: " + r.Failure.Error()
		case r.Certificate == nil:
			attachment.Color = colorEmpty
			attachment.Text = "No certificates found"
		default:
			c := r.Certificate
			attachment.Color = colorOK
			attachment.Fields = []AttachmentField{
				{Title: "SHA-256 Pin", Value: c.Pin, Short: false},
			}
			if c.SPKIPin != "" {
				attachment.Fields = append(attachment.Fields, AttachmentField{Title: "SPKI Pin", Value: c.SPKIPin, Short: false})
			}
			attachment.Fields = append(attachment.Fields,
				AttachmentField{Title: "Subject", Value: c.Subject, Short: true},
				AttachmentField{Title: "Issuer", Value: c.Issuer, Short: true},
				AttachmentField{Title: "Valid To", Value: c.NotAfter.UTC().Format(time.RFC3339), Short: true},
			)
		}
		attachments = append(attachments, attachment)
	}

	return Payload{
		Text:        fmt.Sprintf("Certificate pins of %d host(s), %d failed", len(results), failed),
		Username:    config.SlackUsername,
		IconURL:     config.SlackIconURL,
		Attachments: attachments,
	}
}

// Post posts to Slack a Payload
func (s Payload) Post(config *config.Configuration) error {
	body, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "can't encode Slack payload")
	}
	req, err := http.NewRequest(http.MethodPost, config.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "can't build Slack request")
	}
	req.Header.Add("Content-Type", "application/json")
	client := &http.Client{Timeout: config.ConnectTimeout + config.ReadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "Slack Post error")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("Slack Post error: unexpected status %s", resp.Status)
	}
	return nil
}
