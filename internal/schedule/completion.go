package schedule

import "github.com/chris-regnier/dailyctl/internal/model"

// CompletedLevelIDs returns the IDs of levels the progress rows mark completed.
func CompletedLevelIDs(progress []model.LevelProgress) map[int64]bool {
	done := make(map[int64]bool, len(progress))
	for _, p := range progress {
		if p.IsCompleted {
			done[p.LevelID] = true
		}
	}
	return done
}
