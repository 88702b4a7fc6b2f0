package mcptools

import (
	"time"

	"github.com/chris-regnier/dailyctl/internal/model"
)

func dateOrToday(s string, now time.Time) string {
	if s == "" {
		return now.Format(model.DateLayout)
	}
	return s
}

func levelResult(l model.Level) LevelResult {
	return LevelResult{
		ID:         l.ID,
		EventToken: l.EventToken,
		LevelName:  l.LevelName,
		DaysOffset: l.DaysOffset,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
