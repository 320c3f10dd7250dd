package upload

import (
	"fmt"
	"strings"
)

// BuildDeepLink returns the t.me link that opens the bot with sessionID as
// the start parameter
func BuildDeepLink(botUsername, sessionID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), sessionID)
}

// SessionIDFromStart extracts the session id from a /start message. Everything
// after the command is the id; ok is false when there is no argument.
func SessionIDFromStart(text string) (sessionID string, ok bool) {
	command, arg, found := strings.Cut(strings.TrimSpace(text), " ")
	if !found || !isStartCommand(command) {
		return "", false
	}
	arg = strings.TrimSpace(arg)
	return arg, arg != ""
}

// isStartCommand accepts /start and /start@<bot>
func isStartCommand(command string) bool {
	name, _, _ := strings.Cut(command, "@")
	return name == "/start"
}
