package relations

import (
	"context"
	"fmt"
	"strings"

	"socialgraph/config"
	"socialgraph/db"
	"socialgraph/models"
)

// SearchResult is a directory hit enriched with the searching actor's label
// toward the account.
type SearchResult struct {
	Account models.Account `json:"account"`
	Label   Label          `json:"label"`
}

// DiscoveryService layers read-only directory search and follow-back
// suggestion queries on top of the edge store.
type DiscoveryService struct {
	store     *Store
	directory Directory
}

func NewDiscoveryService(store *Store, directory Directory) *DiscoveryService {
	return &DiscoveryService{store: store, directory: directory}
}

func searchLimit() int {
	if config.AppConfig != nil && config.AppConfig.Relations.SearchLimit > 0 {
		return config.AppConfig.Relations.SearchLimit
	}
	return 50
}

func suggestionLimit() int {
	if config.AppConfig != nil && config.AppConfig.Relations.SuggestionLimit > 0 {
		return config.AppConfig.Relations.SuggestionLimit
	}
	return 50
}

// SearchAccounts runs a directory search (two characters minimum) and
// labels every hit toward the actor with batched edge and block lookups.
func (d *DiscoveryService) SearchAccounts(ctx context.Context, actorID int64, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: query must be at least 2 characters", ErrInvalidOperation)
	}

	accounts, err := d.directory.Search(ctx, query, searchLimit())
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(accounts))
	if len(accounts) == 0 {
		return results, nil
	}

	ids := make([]int64, 0, len(accounts))
	for _, acc := range accounts {
		if acc.ID != actorID {
			ids = append(ids, acc.ID)
		}
	}

	outgoing, incoming, err := d.pairEdgesBatch(ctx, actorID, ids)
	if err != nil {
		return nil, err
	}
	blockedByMe, blockedMe, err := d.blockStateBatch(ctx, actorID, ids)
	if err != nil {
		return nil, err
	}

	for _, acc := range accounts {
		if acc.ID == actorID {
			continue
		}
		label := ComputeLabel(outgoing[acc.ID], incoming[acc.ID], blockedByMe[acc.ID], blockedMe[acc.ID])
		results = append(results, SearchResult{Account: acc, Label: label})
	}
	return results, nil
}

// FollowBackSuggestions returns accounts with an accepted edge toward the
// actor that the actor has no edge toward at all: accepted-incoming minus
// any-outgoing. Blocked pairs never appear because a block severs both
// edges and forbids new ones.
func (d *DiscoveryService) FollowBackSuggestions(ctx context.Context, actorID int64) ([]models.Account, error) {
	outgoingIDs := db.GetReadOnlyDB(ctx).Model(&models.FollowEdge{}).
		Select("following_id").
		Where("follower_id = ?", actorID)

	var edges []models.FollowEdge
	err := db.GetReadOnlyDB(ctx).
		Where("following_id = ? AND status = ?", actorID, models.FollowAccepted).
		Where("follower_id NOT IN (?)", outgoingIDs).
		Order("id DESC").
		Limit(suggestionLimit()).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-back suggestions: %w", err)
	}

	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FollowerID)
	}
	accounts, err := d.directory.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (d *DiscoveryService) pairEdgesBatch(ctx context.Context, actorID int64, otherIDs []int64) (outgoing, incoming map[int64]*models.FollowEdge, err error) {
	outgoing = make(map[int64]*models.FollowEdge)
	incoming = make(map[int64]*models.FollowEdge)
	if len(otherIDs) == 0 {
		return outgoing, incoming, nil
	}

	var edges []models.FollowEdge
	err = db.GetReadOnlyDB(ctx).
		Where("(follower_id = ? AND following_id IN (?)) OR (following_id = ? AND follower_id IN (?))",
			actorID, otherIDs, actorID, otherIDs).
		Find(&edges).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch pair edges: %w", err)
	}
	for i := range edges {
		if edges[i].FollowerID == actorID {
			outgoing[edges[i].FollowingID] = &edges[i]
		} else {
			incoming[edges[i].FollowerID] = &edges[i]
		}
	}
	return outgoing, incoming, nil
}

func (d *DiscoveryService) blockStateBatch(ctx context.Context, actorID int64, otherIDs []int64) (blockedByMe, blockedMe map[int64]bool, err error) {
	blockedByMe = make(map[int64]bool)
	blockedMe = make(map[int64]bool)
	if len(otherIDs) == 0 {
		return blockedByMe, blockedMe, nil
	}

	var blocks []models.BlockEdge
	err = db.GetReadOnlyDB(ctx).
		Where("(blocker_id = ? AND blocked_id IN (?)) OR (blocked_id = ? AND blocker_id IN (?))",
			actorID, otherIDs, actorID, otherIDs).
		Find(&blocks).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch block state: %w", err)
	}
	for _, b := range blocks {
		if b.BlockerID == actorID {
			blockedByMe[b.BlockedID] = true
		} else {
			blockedMe[b.BlockerID] = true
		}
	}
	return blockedByMe, blockedMe, nil
}

// ListPendingRequests returns the actor's incoming follow requests awaiting
// accept or reject.
func (d *DiscoveryService) ListPendingRequests(ctx context.Context, actorID int64) ([]models.FollowEdge, error) {
	var edges []models.FollowEdge
	err := db.GetReadOnlyDB(ctx).
		Where("following_id = ? AND status = ?", actorID, models.FollowRequested).
		Order("id DESC").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return edges, nil
}

// ListBlocked returns the actor's active blocks.
func (d *DiscoveryService) ListBlocked(ctx context.Context, actorID int64) ([]models.BlockEdge, error) {
	var blocks []models.BlockEdge
	err := db.GetReadOnlyDB(ctx).
		Where("blocker_id = ?", actorID).
		Order("id DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}
