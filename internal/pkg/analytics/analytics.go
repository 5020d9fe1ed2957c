package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoWillems/Galleria/internal/pkg/cache"
	"github.com/MarcoWillems/Galleria/internal/pkg/database"
)

const (
	artworkViewsKey   = "artwork:counters:views"
	eventCountsPrefix = "analytics:events:"
	eventCountsTTL    = 30 * 24 * time.Hour
)

// AddArtworkView increments the pending view counter for an artwork in Redis
func AddArtworkView(artworkID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(artworkID), 10)
	return cache.GetClient().HIncrBy(ctx, artworkViewsKey, field, 1).Err()
}

// RecordEvent increments the daily counter for a business event (order placed,
// payment completed, payment failed). Metadata is accepted for interface
// symmetry with the job payload but only the event type is aggregated.
func RecordEvent(ctx context.Context, eventType string, metadata map[string]string) error {
	rdb := cache.GetClient()
	key := eventCountsPrefix + time.Now().UTC().Format("2006-01-02")

	pipe := rdb.Pipeline()
	pipe.HIncrBy(ctx, key, eventType, 1)
	pipe.Expire(ctx, key, eventCountsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetEventCounts returns the per-event-type counters for the given day (UTC).
func GetEventCounts(ctx context.Context, day time.Time) (map[string]int64, error) {
	key := eventCountsPrefix + day.UTC().Format("2006-01-02")
	data, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(data))
	for event, raw := range data {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		counts[event] = n
	}
	return counts, nil
}

// FlushAll flushes pending artwork view counters to the database
func FlushAll() error {
	return flushHashToTable(artworkViewsKey, "artworks", "view_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	// Collect ids and increments; sort ids for stable SQL
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
