package relations

import (
	"context"
	"testing"

	"socialgraph/db"
	"socialgraph/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccepted(t *testing.T, followerID, followingID int64) {
	t.Helper()
	require.NoError(t, db.ORM.Create(&models.FollowEdge{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      models.FollowAccepted,
	}).Error)
}

func TestCountsMatchAcceptedEdges(t *testing.T) {
	service, _, _, _ := newTestService(t)
	aggregation := NewAggregationService(NewStore(), NewGormDirectory(), nil)
	ctx := context.Background()

	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)
	carol := createTestAccount(t, true)

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = service.Follow(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	// Pending request toward a private account must not count.
	_, err = service.Follow(ctx, bob.ID, carol.ID)
	require.NoError(t, err)

	counts, err := aggregation.GetCounts(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts.Followers)
	assert.EqualValues(t, 0, counts.Following)

	// Counts are recomputed from edges after every mutation.
	require.NoError(t, service.Unfollow(ctx, alice.ID, bob.ID))
	counts, err = aggregation.RecomputeCounts(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Followers)
}

func TestListFollowingPagination(t *testing.T) {
	setupTestDB(t)
	aggregation := NewAggregationService(NewStore(), NewGormDirectory(), nil)
	ctx := context.Background()

	alice := createTestAccount(t, false)
	targets := make([]*models.Account, 0, 120)
	for i := 0; i < 120; i++ {
		acc := createTestAccount(t, false)
		targets = append(targets, acc)
		seedAccepted(t, alice.ID, acc.ID)
	}

	seen := make(map[int64]bool)
	var cursor int64
	pageSizes := []int{50, 50, 20}

	for i, want := range pageSizes {
		page, err := aggregation.ListFollowing(ctx, alice.ID, cursor, 50)
		require.NoError(t, err)
		assert.Len(t, page.Items, want, "page %d", i)
		assert.EqualValues(t, 120, page.TotalCount)
		if i < len(pageSizes)-1 {
			assert.True(t, page.HasMore, "page %d", i)
		}
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "duplicate account %d on page %d", item.ID, i)
			seen[item.ID] = true
		}
		cursor = page.NextCursor
	}

	// No omissions: every followed account appeared exactly once.
	assert.Len(t, seen, 120)
	for _, target := range targets {
		assert.True(t, seen[target.ID])
	}

	// Past the end: empty page, no more.
	page, err := aggregation.ListFollowing(ctx, alice.ID, cursor, 50)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestListFollowers(t *testing.T) {
	setupTestDB(t)
	aggregation := NewAggregationService(NewStore(), NewGormDirectory(), nil)
	ctx := context.Background()

	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)
	carol := createTestAccount(t, false)
	seedAccepted(t, bob.ID, alice.ID)
	seedAccepted(t, carol.ID, alice.ID)
	// Requested edges are excluded from list views.
	require.NoError(t, db.ORM.Create(&models.FollowEdge{
		FollowerID:  alice.ID,
		FollowingID: bob.ID,
		Status:      models.FollowRequested,
	}).Error)

	page, err := aggregation.ListFollowers(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.TotalCount)
	assert.False(t, page.HasMore)
	assert.Equal(t, bob.ID, page.Items[0].ID)
	assert.Equal(t, carol.ID, page.Items[1].ID)
}

func TestPageSizeClamped(t *testing.T) {
	setupTestDB(t)
	aggregation := NewAggregationService(NewStore(), NewGormDirectory(), nil)
	ctx := context.Background()
	alice := createTestAccount(t, false)

	// Oversized and non-positive page sizes fall back to the configured caps.
	page, err := aggregation.ListFollowers(ctx, alice.ID, 0, 100000)
	require.NoError(t, err)
	assert.NotNil(t, page)

	page, err = aggregation.ListFollowers(ctx, alice.ID, 0, -5)
	require.NoError(t, err)
	assert.NotNil(t, page)
}

func TestAggregationInvalidationOnBusEvent(t *testing.T) {
	service, _, _, bus := newTestService(t)
	aggregation := NewAggregationService(NewStore(), NewGormDirectory(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aggregation.Start(ctx, bus, nil)

	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)
	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Without redis the recomputation happens inline on read; the
	// subscription must still consume events without blocking commands.
	counts, err := aggregation.GetCounts(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Followers)
}
