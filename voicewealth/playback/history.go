package playback

import (
	"github.com/samber/lo"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
)

const MaxHistory = 5

// pushHistory puts m in front, drops any older entry with the same ID and keeps at most MaxHistory entries.
func pushHistory(history []catalog.Message, m catalog.Message) []catalog.Message {
	next := make([]catalog.Message, 0, len(history)+1)
	next = append(next, m)
	next = append(next, history...)

	next = lo.UniqBy(next, func(m catalog.Message) string {
		return m.ID
	})
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}
	return next
}

func findInHistory(history []catalog.Message, id string) (catalog.Message, bool) {
	return lo.Find(history, func(m catalog.Message) bool {
		return m.ID == id
	})
}
