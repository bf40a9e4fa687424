package history

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// lastInBucket partitions snapshots by a deterministic bucket key and keeps,
// per bucket, the snapshot with the greatest effective time. Survivors are
// returned ascending by effective time. Single pass, O(n) plus the final
// sort over the (much smaller) survivor set.
func lastInBucket(snapshots []snapshot.Snapshot, key func(time.Time) string) []snapshot.Snapshot {
	best := make(map[string]snapshot.Snapshot, len(snapshots))
	for _, s := range snapshots {
		k := key(s.EffectiveAt)
		if cur, ok := best[k]; !ok || s.EffectiveAt.After(cur.EffectiveAt) {
			best[k] = s
		}
	}

	out := make([]snapshot.Snapshot, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveAt.Before(out[j].EffectiveAt) })
	return out
}

// eightHourSlot buckets by day plus hour-of-day/8, giving three slots per day.
func eightHourSlot(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%s-%d", u.Format("2006-01-02"), u.Hour()/8)
}

// everyNDays buckets by days-since-epoch divided by n.
func everyNDays(n int) func(time.Time) string {
	return func(t time.Time) string {
		days := t.UTC().Unix() / 86400
		return strconv.FormatInt(days/int64(n), 10)
	}
}

// calendarMonth buckets by year and month.
func calendarMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}
