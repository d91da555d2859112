package relations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialgraph/db"
	"socialgraph/models"

	"gorm.io/gorm"
)

// Store owns FollowEdge and BlockEdge persistence and their invariants:
// no self-edges, at most one edge per ordered pair, no follow edges across
// an active block. The composite unique indexes close create races the
// application-level checks cannot.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// GetFollowEdge returns the edge for the ordered pair, or nil if absent.
func (s *Store) GetFollowEdge(ctx context.Context, followerID, followingID int64) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	err := db.GetReadOnlyDB(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow edge: %w", err)
	}
	return &edge, nil
}

// GetFollowEdgeByID returns the edge or ErrNotFound.
func (s *Store) GetFollowEdgeByID(ctx context.Context, edgeID int64) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	err := db.GetReadOnlyDB(ctx).First(&edge, edgeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow edge %d: %w", edgeID, err)
	}
	return &edge, nil
}

// GetPairEdges returns the outgoing and incoming edges between viewer and
// other in one round trip. Either may be nil.
func (s *Store) GetPairEdges(ctx context.Context, viewerID, otherID int64) (outgoing, incoming *models.FollowEdge, err error) {
	var edges []models.FollowEdge
	err = db.GetReadOnlyDB(ctx).
		Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Find(&edges).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pair edges: %w", err)
	}
	for i := range edges {
		if edges[i].FollowerID == viewerID {
			outgoing = &edges[i]
		} else {
			incoming = &edges[i]
		}
	}
	return outgoing, incoming, nil
}

// CreateFollowEdge inserts a new edge for the ordered pair. The prior checks
// are best-effort; the unique index rejects the duplicate-create race.
func (s *Store) CreateFollowEdge(ctx context.Context, followerID, followingID int64, status models.FollowStatus) (*models.FollowEdge, error) {
	if followerID == followingID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}
	if followerID <= 0 || followingID <= 0 {
		return nil, fmt.Errorf("%w: invalid account id", ErrInvalidOperation)
	}

	blockedByMe, blockedMe, err := s.BlockState(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if blockedByMe || blockedMe {
		return nil, ErrBlocked
	}

	existing, err := s.GetFollowEdge(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	edge := &models.FollowEdge{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	err = db.GetWriteDB(ctx).Create(edge).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create follow edge: %w", err)
	}
	return edge, nil
}

// UpdateFollowEdgeStatus applies a status transition. Only requested edges
// may move, and only to accepted or rejected.
func (s *Store) UpdateFollowEdgeStatus(ctx context.Context, edgeID int64, newStatus models.FollowStatus) (*models.FollowEdge, error) {
	if newStatus != models.FollowAccepted && newStatus != models.FollowRejected {
		return nil, fmt.Errorf("%w: cannot transition to %s", ErrInvalidTransition, newStatus)
	}

	var edge models.FollowEdge
	err := db.GetWriteDB(ctx).First(&edge, edgeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load follow edge %d: %w", edgeID, err)
	}
	if edge.Status != models.FollowRequested {
		return nil, fmt.Errorf("%w: edge is %s", ErrInvalidTransition, edge.Status)
	}

	edge.Status = newStatus
	edge.UpdatedAt = time.Now()
	if err := db.GetWriteDB(ctx).Save(&edge).Error; err != nil {
		return nil, fmt.Errorf("failed to update follow edge %d: %w", edgeID, err)
	}
	return &edge, nil
}

// DeleteFollowEdge removes the edge. Deleting an absent edge is not an
// error, so concurrent unfollows race harmlessly.
func (s *Store) DeleteFollowEdge(ctx context.Context, edgeID int64) error {
	err := db.GetWriteDB(ctx).Delete(&models.FollowEdge{}, edgeID).Error
	if err != nil {
		return fmt.Errorf("failed to delete follow edge %d: %w", edgeID, err)
	}
	return nil
}

// GetBlockEdge returns the block for the ordered pair, or nil if absent.
func (s *Store) GetBlockEdge(ctx context.Context, blockerID, blockedID int64) (*models.BlockEdge, error) {
	var block models.BlockEdge
	err := db.GetReadOnlyDB(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block edge: %w", err)
	}
	return &block, nil
}

// BlockState reports block existence in both directions from the viewer's
// perspective.
func (s *Store) BlockState(ctx context.Context, viewerID, otherID int64) (blockedByMe, blockedMe bool, err error) {
	var blocks []models.BlockEdge
	err = db.GetReadOnlyDB(ctx).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Find(&blocks).Error
	if err != nil {
		return false, false, fmt.Errorf("failed to get block state: %w", err)
	}
	for _, b := range blocks {
		if b.BlockerID == viewerID {
			blockedByMe = true
		} else {
			blockedMe = true
		}
	}
	return blockedByMe, blockedMe, nil
}

// CreateBlockEdge inserts the block and deletes any follow edges between the
// pair in both directions. All three writes commit or none do: a block row
// without the edge deletions would violate the block invariant.
func (s *Store) CreateBlockEdge(ctx context.Context, blockerID, blockedID int64) (*models.BlockEdge, error) {
	if blockerID == blockedID {
		return nil, fmt.Errorf("%w: cannot block yourself", ErrInvalidOperation)
	}
	if blockerID <= 0 || blockedID <= 0 {
		return nil, fmt.Errorf("%w: invalid account id", ErrInvalidOperation)
	}

	existing, err := s.GetBlockEdge(ctx, blockerID, blockedID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	block := &models.BlockEdge{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	}
	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
			blockerID, blockedID, blockedID, blockerID,
		).Delete(&models.FollowEdge{}).Error; err != nil {
			return err
		}
		return tx.Create(block).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create block edge: %w", err)
	}
	return block, nil
}

// DeleteBlockEdge removes the block for the ordered pair. Idempotent; it
// does not restore any follow edges deleted when the block was created.
func (s *Store) DeleteBlockEdge(ctx context.Context, blockerID, blockedID int64) (deleted bool, err error) {
	result := db.GetWriteDB(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockEdge{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete block edge: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// WriteHistory appends an audit row. History is write-only from the command
// processor and never consulted for live state.
func (s *Store) WriteHistory(ctx context.Context, followerID, followingID int64, action models.HistoryAction, metadata string) error {
	row := &models.RelationshipHistory{
		FollowerID:  followerID,
		FollowingID: followingID,
		Action:      action,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	return nil
}

// ListHistory returns the audit trail between two accounts, newest first.
func (s *Store) ListHistory(ctx context.Context, a, b int64, limit int) ([]models.RelationshipHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.RelationshipHistory
	err := db.GetReadOnlyDB(ctx).
		Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)", a, b, b, a).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, nil
}
