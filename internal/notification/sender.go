package notification

import "eventhive/utils"

// LogSender writes outbound messages to the log instead of a mail transport.
// Default when no real Sender is wired in.
type LogSender struct{}

func (LogSender) Send(to, subject, _ string) error {
	utils.Info("mail: delivered (log transport)", map[string]any{
		"to":      to,
		"subject": subject,
	})
	return nil
}
