package relations

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"socialgraph/config"
	"socialgraph/db"
	"socialgraph/models"

	"github.com/go-redis/redis/v8"
)

type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// AccountPage is one page of a follower/following list. NextCursor is the
// edge ID to pass for the next page; HasMore falls back to the full-page
// heuristic when the cursor runs out.
type AccountPage struct {
	Items      []models.Account `json:"items"`
	TotalCount int64            `json:"total_count"`
	HasMore    bool             `json:"has_more"`
	NextCursor int64            `json:"next_cursor"`
}

// AggregationService derives follower/following counts and list views from
// accepted edges. Counts are a recomputation cache, never an independently
// incremented counter: every change notification touching an account throws
// the cached value away and counts the edges again.
type AggregationService struct {
	store       *Store
	directory   Directory
	redisClient *redis.Client
	ttl         time.Duration
}

func NewAggregationService(store *Store, directory Directory, redisClient *redis.Client) *AggregationService {
	ttl := 24 * time.Hour
	if config.AppConfig != nil && config.AppConfig.Relations.CountsTTLSeconds > 0 {
		ttl = time.Duration(config.AppConfig.Relations.CountsTTLSeconds) * time.Second
	}
	return &AggregationService{
		store:       store,
		directory:   directory,
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func countsKey(accountID int64) string {
	return fmt.Sprintf("counts:%d", accountID)
}

// GetCounts returns the cached counts, recomputing on a miss.
func (a *AggregationService) GetCounts(ctx context.Context, accountID int64) (FollowCounts, error) {
	if a.redisClient != nil {
		data, err := a.redisClient.Get(ctx, countsKey(accountID)).Result()
		if err == nil {
			var counts FollowCounts
			if err := json.Unmarshal([]byte(data), &counts); err == nil {
				return counts, nil
			}
		} else if err != redis.Nil {
			log.Printf("failed to read counts cache for account %d: %v", accountID, err)
		}
	}
	return a.RecomputeCounts(ctx, accountID)
}

// RecomputeCounts counts accepted edges from scratch and refreshes the cache.
func (a *AggregationService) RecomputeCounts(ctx context.Context, accountID int64) (FollowCounts, error) {
	var counts FollowCounts
	err := db.GetReadOnlyDB(ctx).Model(&models.FollowEdge{}).
		Where("following_id = ? AND status = ?", accountID, models.FollowAccepted).
		Count(&counts.Followers).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count followers of %d: %w", accountID, err)
	}
	err = db.GetReadOnlyDB(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ? AND status = ?", accountID, models.FollowAccepted).
		Count(&counts.Following).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count following of %d: %w", accountID, err)
	}
	countsRecomputeTotal.Inc()

	if a.redisClient != nil {
		data, err := json.Marshal(counts)
		if err == nil {
			if err := a.redisClient.Set(ctx, countsKey(accountID), data, a.ttl).Err(); err != nil {
				log.Printf("failed to cache counts for account %d: %v", accountID, err)
			}
		}
	}
	return counts, nil
}

// ListFollowers returns a page of accounts with an accepted edge toward
// accountID, ordered by edge ID for a stable cursor.
func (a *AggregationService) ListFollowers(ctx context.Context, accountID, cursor int64, pageSize int) (*AccountPage, error) {
	return a.listEdgePage(ctx, accountID, cursor, pageSize, true)
}

// ListFollowing returns a page of accounts accountID has an accepted edge
// toward.
func (a *AggregationService) ListFollowing(ctx context.Context, accountID, cursor int64, pageSize int) (*AccountPage, error) {
	return a.listEdgePage(ctx, accountID, cursor, pageSize, false)
}

func (a *AggregationService) listEdgePage(ctx context.Context, accountID, cursor int64, pageSize int, followers bool) (*AccountPage, error) {
	pageSize = clampPageSize(pageSize)

	ownColumn := "following_id"
	if !followers {
		ownColumn = "follower_id"
	}

	var total int64
	err := db.GetReadOnlyDB(ctx).Model(&models.FollowEdge{}).
		Where(ownColumn+" = ? AND status = ?", accountID, models.FollowAccepted).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count edges for %d: %w", accountID, err)
	}

	var edges []models.FollowEdge
	err = db.GetReadOnlyDB(ctx).
		Where(ownColumn+" = ? AND status = ? AND id > ?", accountID, models.FollowAccepted, cursor).
		Order("id ASC").
		Limit(pageSize).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list edges for %d: %w", accountID, err)
	}

	page := &AccountPage{
		Items:      []models.Account{},
		TotalCount: total,
		HasMore:    len(edges) == pageSize,
	}
	if len(edges) == 0 {
		return page, nil
	}
	page.NextCursor = edges[len(edges)-1].ID

	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		if followers {
			ids = append(ids, e.FollowerID)
		} else {
			ids = append(ids, e.FollowingID)
		}
	}
	accounts, err := a.directory.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Keep edge order: the directory returns accounts in arbitrary order.
	byID := make(map[int64]models.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	for _, id := range ids {
		if acc, ok := byID[id]; ok {
			page.Items = append(page.Items, acc)
		}
	}
	return page, nil
}

func clampPageSize(pageSize int) int {
	def, max := 20, 100
	if config.AppConfig != nil {
		if config.AppConfig.Relations.PageSize > 0 {
			def = config.AppConfig.Relations.PageSize
		}
		if config.AppConfig.Relations.MaxPageSize > 0 {
			max = config.AppConfig.Relations.MaxPageSize
		}
	}
	if pageSize <= 0 {
		return def
	}
	if pageSize > max {
		return max
	}
	return pageSize
}

// Start wires the invalidation triggers: the local bus for instant refresh
// and the durable feed for cross-process consistency. Both paths converge on
// the same recomputation, so overlapping deliveries are harmless.
func (a *AggregationService) Start(ctx context.Context, bus *EventBus, feed ChangeFeed) {
	local, cancel := bus.Subscribe(0)

	var durable <-chan Event
	if feed != nil {
		ch, err := feed.Subscribe(ctx, 0)
		if err != nil {
			log.Printf("aggregation: durable subscription unavailable: %v", err)
		} else {
			durable = ch
		}
	}

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-local:
				if !ok {
					return
				}
				a.invalidate(ctx, event)
			case event, ok := <-durable:
				if !ok {
					durable = nil
					continue
				}
				a.invalidate(ctx, event)
			}
		}
	}()
}

func (a *AggregationService) invalidate(ctx context.Context, event Event) {
	recomputeCtx, cancel := commandContext(ctx)
	defer cancel()
	if _, err := a.RecomputeCounts(recomputeCtx, event.FollowerID); err != nil {
		log.Printf("aggregation: recompute for account %d failed: %v", event.FollowerID, err)
	}
	if _, err := a.RecomputeCounts(recomputeCtx, event.FollowingID); err != nil {
		log.Printf("aggregation: recompute for account %d failed: %v", event.FollowingID, err)
	}
}
