// Package notify sends desktop notifications when a DNA analysis finishes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/genefit/genefit-link/internal/logging"
)

const appTitle = "GeneFit"

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex

	// send delivers one notification; replaced in tests.
	send func(title, message string) error
}

// NewNotifier creates a notifier. A disabled notifier drops every message.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// AnalysisComplete announces a finished analysis.
func (n *Notifier) AnalysisComplete(file, jobID string) {
	if !n.IsEnabled() {
		return
	}

	title := "Analysis Complete"
	message := fmt.Sprintf("%s\nJob %s is ready. Open your dashboard for insights.", shortenPath(file), truncate(jobID, 40))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("job", jobID).Msg("Failed to send analysis complete notification")
	}
}

// AnalysisFailed announces a failed upload or analysis.
func (n *Notifier) AnalysisFailed(file, errorMsg string) {
	if !n.IsEnabled() {
		return
	}

	title := "Analysis Failed"
	message := fmt.Sprintf("%s\n%s", shortenPath(file), truncate(errorMsg, 100))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("file", file).Msg("Failed to send analysis failed notification")
	}
}

// Alert sends a prominent notification, falling back to a regular one.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := appTitle + " Alert"
	if err := beeep.Alert(title, message, ""); err != nil {
		if err := n.send(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
