package relations

import (
	"context"
	"testing"

	"socialgraph/db"
	"socialgraph/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyActions(t *testing.T) []models.HistoryAction {
	t.Helper()
	var rows []models.RelationshipHistory
	require.NoError(t, db.ORM.Order("id ASC").Find(&rows).Error)
	actions := make([]models.HistoryAction, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, r.Action)
	}
	return actions
}

func TestFollowPublicAccount(t *testing.T) {
	service, notifier, publisher, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	edge, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, edge.Status)

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelFollowing, label)

	label, err = service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelFollower, label)

	assert.Equal(t, []models.HistoryAction{models.ActionFollow}, historyActions(t))
	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventEdgeCreated, publisher.events[0].Kind)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, bob.ID, notifier.notifications[0].AccountID)
	assert.Equal(t, "new_follower", notifier.notifications[0].NotifyType)
}

func TestFollowPrivateAccountThenAccept(t *testing.T) {
	service, notifier, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, true)

	edge, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowRequested, edge.Status)

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelRequested, label)

	// Only the followed account may accept.
	_, err = service.Accept(ctx, alice.ID, edge.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	accepted, err := service.Accept(ctx, bob.ID, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, accepted.Status)

	label, err = service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelFollowing, label)
	label, err = service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelFollower, label)

	assert.Equal(t, []models.HistoryAction{models.ActionFollow, models.ActionAccept}, historyActions(t))
	require.Len(t, notifier.notifications, 2)
	assert.Equal(t, "follow_request", notifier.notifications[0].NotifyType)
	assert.Equal(t, "request_accepted", notifier.notifications[1].NotifyType)
	assert.Equal(t, alice.ID, notifier.notifications[1].AccountID)
}

func TestMutualFollow(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = service.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelMutual, label)
	label, err = service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelMutual, label)
}

func TestFollowDoubleTapIsNoOp(t *testing.T) {
	service, _, publisher, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	first, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	second, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The no-op publishes nothing and writes no second history row.
	assert.Len(t, publisher.events, 1)
	assert.Equal(t, []models.HistoryAction{models.ActionFollow}, historyActions(t))
}

func TestFollowBlockedFails(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	require.NoError(t, service.Block(ctx, bob.ID, alice.ID))

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestUnfollowIdempotent(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, service.Unfollow(ctx, alice.ID, bob.ID))
	// Second unfollow is the documented no-op.
	require.NoError(t, service.Unfollow(ctx, alice.ID, bob.ID))

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)
	assert.Equal(t, []models.HistoryAction{models.ActionFollow, models.ActionUnfollow}, historyActions(t))
}

func TestCancelRequest(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, true)
	carol := createTestAccount(t, false)

	edge, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Only the requester may cancel.
	assert.ErrorIs(t, service.Cancel(ctx, carol.ID, edge.ID), ErrNotOwner)

	require.NoError(t, service.Cancel(ctx, alice.ID, edge.ID))

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)
	label, err = service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)

	// Cancelling the already-deleted edge is a no-op.
	require.NoError(t, service.Cancel(ctx, alice.ID, edge.ID))
}

func TestRejectDeletesEdgeAndAllowsRefollow(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, true)

	edge, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, service.Reject(ctx, bob.ID, edge.ID))

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)

	// Rejection leaves no tombstone: a fresh request is possible.
	fresh, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, edge.ID, fresh.ID)
	assert.Equal(t, models.FollowRequested, fresh.Status)
}

func TestBlockSeversAndHidesFromBlockedParty(t *testing.T) {
	service, _, publisher, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = service.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, service.Block(ctx, alice.ID, bob.ID))

	var edgeCount int64
	require.NoError(t, db.ORM.Model(&models.FollowEdge{}).Count(&edgeCount).Error)
	assert.EqualValues(t, 0, edgeCount)

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelBlocked, label)

	// The blocked party must not be able to tell.
	label, err = service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)

	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, EventBlockCreated, last.Kind)
}

func TestUnblockDoesNotRestoreEdges(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, service.Block(ctx, alice.ID, bob.ID))
	require.NoError(t, service.Unblock(ctx, alice.ID, bob.ID))

	label, err := service.GetRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)

	// Second unblock is the documented no-op.
	require.NoError(t, service.Unblock(ctx, alice.ID, bob.ID))
	assert.Equal(t, []models.HistoryAction{models.ActionFollow, models.ActionBlock, models.ActionUnblock}, historyActions(t))
}

func TestBlockSelf(t *testing.T) {
	service, _, _, _ := newTestService(t)
	alice := createTestAccount(t, false)

	err := service.Block(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRemoveFollower(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	_, err := service.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, service.RemoveFollower(ctx, alice.ID, bob.ID))

	label, err := service.GetRelationship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, LabelNone, label)

	// No-op when nothing to remove.
	require.NoError(t, service.RemoveFollower(ctx, alice.ID, bob.ID))
	assert.Equal(t, []models.HistoryAction{models.ActionFollow, models.ActionRemoveFollower}, historyActions(t))
}

func TestFollowUnknownTarget(t *testing.T) {
	service, _, _, _ := newTestService(t)
	alice := createTestAccount(t, false)

	_, err := service.Follow(context.Background(), alice.ID, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommandsPublishOnLocalBus(t *testing.T) {
	service, _, _, bus := newTestService(t)
	ctx := context.Background()
	alice := createTestAccount(t, false)
	bob := createTestAccount(t, false)

	events, cancel := bus.Subscribe(bob.ID)
	defer cancel()

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, EventEdgeCreated, event.Kind)
		assert.Equal(t, alice.ID, event.FollowerID)
		assert.Equal(t, bob.ID, event.FollowingID)
	default:
		t.Fatal("expected an event on the local bus")
	}
}
