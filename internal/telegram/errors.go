package telegram

import (
	"errors"
	"fmt"
	"strconv"
)

// APIError represents a structured Telegram Bot API error response.
type APIError struct {
	ErrorCode   int
	Description string
	RetryAfter  int
	// MigrateToChatID is set when the group was upgraded to a supergroup
	// and now lives under a new identifier.
	MigrateToChatID int64
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.MigrateToChatID != 0:
		return fmt.Sprintf("telegram API error %d: %s (migrate_to_chat_id=%d)", e.ErrorCode, e.Description, e.MigrateToChatID)
	case e.RetryAfter > 0:
		return fmt.Sprintf("telegram API error %d: %s (retry_after=%ds)", e.ErrorCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// MigratedChatID returns the chat identifier a chat moved to, if err reports one.
func MigratedChatID(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.MigrateToChatID != 0 {
		return strconv.FormatInt(apiErr.MigrateToChatID, 10), true
	}
	return "", false
}

// IsBotBlocked returns true if the bot was removed from or blocked in the chat (403).
func IsBotBlocked(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == 403
	}
	return false
}
