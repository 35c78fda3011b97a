// Package notify delivers best-effort notifications for migration and sync
// events. Delivery failures are logged, never returned: notifications must
// not affect ledger or sync outcomes.
package notify

import (
	"log"
	"os/exec"
	"strings"

	"github.com/slack-go/slack"
	"github.com/zulandar/waybill/internal/config"
)

// Event is one notifiable occurrence.
type Event struct {
	Feature   string
	Migration string
	Subject   string
	Body      string
}

// Send delivers the event through every configured channel.
func Send(cfg config.NotifyConfig, ev Event) {
	if cfg.SlackWebhook != "" {
		sendSlack(cfg.SlackWebhook, ev)
	}
	if cfg.Command != "" {
		runCommand(cfg.Command, ev)
	}
}

// sendSlack posts the event to a Slack incoming webhook.
func sendSlack(webhook string, ev Event) {
	msg := &slack.WebhookMessage{
		Text: ev.Subject + "\n" + ev.Body,
	}
	if err := slack.PostWebhook(webhook, msg); err != nil {
		log.Printf("notify: slack webhook failed: %v", err)
	}
}

// runCommand executes the shell command template with event placeholders
// substituted, e.g. `notify-send 'Waybill' '{{.Subject}}'`.
func runCommand(command string, ev Event) {
	cmdStr := templateEvent(command, ev)
	cmd := exec.Command("sh", "-c", cmdStr)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
}

// templateEvent replaces placeholders in the command template.
func templateEvent(command string, ev Event) string {
	r := strings.NewReplacer(
		"{{.Subject}}", ev.Subject,
		"{{.Body}}", ev.Body,
		"{{.Feature}}", ev.Feature,
		"{{.Migration}}", ev.Migration,
	)
	return r.Replace(command)
}
