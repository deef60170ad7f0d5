// Package notify tells brand owners that their report is ready.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
)

var ErrSendFailed = errors.New("report email not sent")

// Notification carries what the report-ready email needs.
type Notification struct {
	Email     string
	SessionID string
	Report    *models.RunAggregate
}

// Notifier delivers report-ready notifications.
type Notifier interface {
	ReportReady(ctx context.Context, n Notification) error
}

// Noop drops every notification. Used when no mail key is configured.
type Noop struct{}

func (Noop) ReportReady(ctx context.Context, n Notification) error {
	slog.Info("skipping report email", "session_id", n.SessionID, "reason", "email disabled")
	return nil
}

// New returns a SendGrid notifier, or Noop when no API key is configured.
func New(cfg config.EmailConfig) Notifier {
	if cfg.SendGridAPIKey == "" {
		return Noop{}
	}
	return NewSendGrid(cfg, nil)
}

// SendGrid sends mail through the SendGrid v3 mail-send endpoint.
type SendGrid struct {
	cfg    config.EmailConfig
	client *http.Client
}

// NewSendGrid creates a SendGrid notifier. A nil client gets a 30s timeout.
func NewSendGrid(cfg config.EmailConfig, client *http.Client) *SendGrid {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SendGrid{cfg: cfg, client: client}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailRequest struct {
	Personalizations []struct {
		To []address `json:"to"`
	} `json:"personalizations"`
	From    address       `json:"from"`
	Subject string        `json:"subject"`
	Content []mailContent `json:"content"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ReportReady sends the summary email. A missing address is skipped.
func (s *SendGrid) ReportReady(ctx context.Context, n Notification) error {
	if strings.TrimSpace(n.Email) == "" {
		slog.Info("skipping report email", "session_id", n.SessionID, "reason", "no address")
		return nil
	}
	if n.Report == nil {
		return fmt.Errorf("%w: no report for session %s", ErrSendFailed, n.SessionID)
	}

	html, err := Render(n.Report, s.DashboardLink(n.SessionID))
	if err != nil {
		return fmt.Errorf("render report email: %w", err)
	}

	msg := mailRequest{
		From:    address{Email: s.cfg.FromAddress, Name: s.cfg.FromName},
		Subject: Subject(n.Report.BrandName),
		Content: []mailContent{{Type: "text/html", Value: html}},
	}
	msg.Personalizations = make([]struct {
		To []address `json:"to"`
	}, 1)
	msg.Personalizations[0].To = []address{{Email: n.Email}}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.SendGridAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: sendgrid status %d: %s", ErrSendFailed, resp.StatusCode, string(body))
	}

	slog.Info("report email sent", "session_id", n.SessionID)
	return nil
}

// DashboardLink is the report URL embedded in the email.
func (s *SendGrid) DashboardLink(sessionID string) string {
	return strings.TrimRight(s.cfg.DashboardURL, "/") + "/?report=" + url.QueryEscape(sessionID)
}

func Subject(brand string) string {
	return fmt.Sprintf("Your AI Visibility Report for %s is Ready", brand)
}

// Summary is the two-sentence lead of the email, chosen by rank then coverage.
func Summary(r *models.RunAggregate) string {
	switch {
	case r.BrandRank != nil && *r.BrandRank <= 3:
		best := r.BestModel
		if best == "" {
			best = models.PlatformChatGPT.DisplayName()
		}
		return fmt.Sprintf("%s shows strong AI visibility with a score of %s, ranking #%d in your category. %s demonstrates the highest affinity for your brand among the AI platforms analyzed.",
			r.BrandName, formatNum(r.VisibilityScore), *r.BrandRank, best)
	case r.BrandCoverage >= 50:
		return fmt.Sprintf("%s appears in %s%% of AI responses with an overall visibility score of %s. There are clear opportunities to improve positioning, particularly on platforms where competitors currently dominate.",
			r.BrandName, formatNum(r.BrandCoverage), formatNum(r.VisibilityScore))
	default:
		return fmt.Sprintf("%s has a visibility score of %s, appearing in %s%% of relevant AI queries. Your full report reveals specific strategies to significantly improve your AI presence and outrank competitors.",
			r.BrandName, formatNum(r.VisibilityScore), formatNum(r.BrandCoverage))
	}
}

type platformCell struct {
	Name  string
	Score int
	Color string
}

type emailData struct {
	Summary   string
	Platforms []platformCell
	Link      string
}

// Render builds the HTML body of the report email.
func Render(r *models.RunAggregate, link string) (string, error) {
	data := emailData{Summary: Summary(r), Link: link}
	for _, p := range models.Platforms {
		score := int(math.Round(r.PlatformsSummary[p].Score))
		data.Platforms = append(data.Platforms, platformCell{Name: p.DisplayName(), Score: score, Color: scoreColor(score)})
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func scoreColor(score int) string {
	switch {
	case score >= 70:
		return "#ff8a80"
	case score >= 50:
		return "#ff6b4a"
	default:
		return "#a855f7"
	}
}

func formatNum(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

var emailTemplate = template.Must(template.New("report").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background: #1a0a0f; color: #ffffff; padding: 32px; border-radius: 16px;">
  <div style="text-align: center; margin-bottom: 32px;">
    <h1 style="color: #ffffff; margin: 0; font-size: 24px;">Your AI Visibility Report is Ready</h1>
  </div>
  <div style="background: rgba(255,255,255,0.05); border: 1px solid rgba(255,107,74,0.2); border-radius: 12px; padding: 24px; margin-bottom: 24px;">
    <p style="color: #d4a5a5; font-size: 16px; line-height: 1.6; margin: 0;">{{.Summary}}</p>
  </div>
  <h3 style="color: #d4a5a5; font-size: 12px; text-transform: uppercase; letter-spacing: 1px;">Platform Scores</h3>
  <table style="width: 100%; border-collapse: collapse; margin-bottom: 32px;">
    <tr>{{range .Platforms}}
      <td style="padding: 12px; text-align: center; width: 25%;">{{.Name}}<br/><span style="font-size: 24px; font-weight: bold; color: {{.Color}};">{{.Score}}</span></td>{{end}}
    </tr>
  </table>
  <div style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; background: #ff6b4a; color: white; padding: 16px 48px; border-radius: 12px; text-decoration: none; font-weight: bold;">See Full Report</a>
  </div>
  <p style="color: #d4a5a5; font-size: 12px; text-align: center; margin-top: 32px;">FutureProof AI Visibility Tracker</p>
</div>`))
