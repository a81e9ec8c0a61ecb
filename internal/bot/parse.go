package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Geneteca/discord-bot/internal/model"
)

// parseOffset turns reminder shorthand into minutes-before-event:
// "10m" -> 10, "1h" -> 60, "1d" -> 1440. "0m" is valid and means
// "at event time".
func parseOffset(token string) (int, error) {
	if len(token) < 2 {
		return 0, fmt.Errorf("invalid reminder %q, use e.g. 10m, 1h or 1d", token)
	}
	unit := token[len(token)-1]
	value, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid reminder %q, use e.g. 10m, 1h or 1d", token)
	}
	switch unit {
	case 'm':
		return value, nil
	case 'h':
		return value * 60, nil
	case 'd':
		return value * 1440, nil
	default:
		return 0, fmt.Errorf("invalid reminder %q, use e.g. 10m, 1h or 1d", token)
	}
}

// parseOffsets parses a comma-separated shorthand list like "30m,1h,1d".
func parseOffsets(token string) ([]int, error) {
	parts := strings.Split(token, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m, err := parseOffset(p)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, m)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no reminder offsets in %q", token)
	}
	return offsets, nil
}

// looksLikeOffsets reports whether a token should be consumed as an
// offset list rather than part of the title.
func looksLikeOffsets(token string) bool {
	_, err := parseOffsets(token)
	return err == nil
}

func parseRecurrence(token string) (model.Recurrence, bool) {
	switch strings.ToLower(token) {
	case "daily":
		return model.RecurrenceDaily, true
	case "weekly":
		return model.RecurrenceWeekly, true
	case "monthly":
		return model.RecurrenceMonthly, true
	}
	return "", false
}

// isMentionToken matches raw user/role mentions (<@123>, <@!123>, <@&456>)
// so they can be stripped out of titles.
func isMentionToken(token string) bool {
	return strings.HasPrefix(token, "<@") && strings.HasSuffix(token, ">")
}
