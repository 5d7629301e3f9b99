// Package cache stores computed Gantt timelines. Entries are keyed by the
// query that produced them and dropped wholesale on any layout write. Each
// invalidation also advances a generation counter that callers fold into
// their keys, so a timeline computed before a write can never be stored
// where readers after the write will look.
package cache

import (
	"encoding/json"
	"fmt"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
)

// KeyPrefix namespaces timeline entries.
const KeyPrefix = "layoutrack:timeline:"

// GenerationKey holds the shared invalidation counter. It sits outside
// KeyPrefix so invalidation scans never delete it.
const GenerationKey = "layoutrack:timeline-generation"

func encodeTimeline(tl ganttDomain.Timeline) ([]byte, error) {
	data, err := json.Marshal(tl)
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	return data, nil
}

func decodeTimeline(data []byte) (ganttDomain.Timeline, error) {
	var tl ganttDomain.Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return ganttDomain.Timeline{}, fmt.Errorf("decode timeline: %w", err)
	}
	return tl, nil
}
