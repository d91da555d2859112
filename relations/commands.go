package relations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"socialgraph/config"
	"socialgraph/models"
)

// EventPublisher is the durable propagation path (RabbitFeed in production).
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// RelationService is the command processor: one operation per user action.
// Every successful mutation writes a history row, publishes a change event
// on both propagation paths and, where relevant, signals the notifier.
//
// Operations are idempotent-safe against double taps: an edge already in the
// target state is logged and treated as a no-op instead of failing.
type RelationService struct {
	store     *Store
	bus       *EventBus
	publisher EventPublisher
	directory Directory
	notifier  Notifier
}

func NewRelationService(store *Store, bus *EventBus, directory Directory, publisher EventPublisher, notifier Notifier) *RelationService {
	return &RelationService{
		store:     store,
		bus:       bus,
		publisher: publisher,
		directory: directory,
		notifier:  notifier,
	}
}

// commandContext bounds every command so no operation blocks indefinitely.
// Callers treat a deadline error as retryable, never as success.
func commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 5 * time.Second
	if config.AppConfig != nil && config.AppConfig.Relations.CommandTimeoutMS > 0 {
		timeout = time.Duration(config.AppConfig.Relations.CommandTimeoutMS) * time.Millisecond
	}
	return context.WithTimeout(ctx, timeout)
}

// Follow creates an outgoing edge from actor to target. Whether the edge
// starts as requested or accepted depends on the target's privacy flag read
// from the directory at call time. The flag can flip between that read and
// the insert; the edge then keeps the status derived from the read. This
// race is accepted per product semantics, not fixed.
func (s *RelationService) Follow(ctx context.Context, actorID, targetID int64) (*models.FollowEdge, error) {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	target, err := s.directory.GetAccount(ctx, targetID)
	if err != nil {
		recordCommand("follow", err)
		return nil, err
	}

	status := models.FollowAccepted
	if target.Private {
		status = models.FollowRequested
	}

	edge, err := s.store.CreateFollowEdge(ctx, actorID, targetID, status)
	if errors.Is(err, ErrAlreadyExists) {
		existing, getErr := s.store.GetFollowEdge(ctx, actorID, targetID)
		if getErr == nil && existing != nil {
			log.Printf("follow %d->%d: edge already exists with status %s, no-op", actorID, targetID, existing.Status)
			recordCommand("follow", nil)
			return existing, nil
		}
		recordCommand("follow", err)
		return nil, err
	}
	if err != nil {
		recordCommand("follow", err)
		return nil, err
	}

	if err := s.store.WriteHistory(ctx, actorID, targetID, models.ActionFollow, string(status)); err != nil {
		log.Printf("follow %d->%d: %v", actorID, targetID, err)
	}
	s.publish(ctx, Event{FollowerID: actorID, FollowingID: targetID, Kind: EventEdgeCreated})

	if s.notifier != nil {
		if status == models.FollowRequested {
			s.notifier.Notify(targetID, "follow_request", fmt.Sprintf("account %d requested to follow you", actorID))
		} else {
			s.notifier.Notify(targetID, "new_follower", fmt.Sprintf("account %d started following you", actorID))
		}
	}

	recordCommand("follow", nil)
	return edge, nil
}

// Unfollow deletes the actor's accepted outgoing edge. Absent edge is a
// documented no-op so double taps and concurrent unfollows stay silent.
func (s *RelationService) Unfollow(ctx context.Context, actorID, targetID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	edge, err := s.store.GetFollowEdge(ctx, actorID, targetID)
	if err != nil {
		recordCommand("unfollow", err)
		return err
	}
	if edge == nil || edge.Status != models.FollowAccepted {
		log.Printf("unfollow %d->%d: no accepted edge, no-op", actorID, targetID)
		recordCommand("unfollow", nil)
		return nil
	}

	if err := s.store.DeleteFollowEdge(ctx, edge.ID); err != nil {
		recordCommand("unfollow", err)
		return err
	}
	if err := s.store.WriteHistory(ctx, actorID, targetID, models.ActionUnfollow, ""); err != nil {
		log.Printf("unfollow %d->%d: %v", actorID, targetID, err)
	}
	s.publish(ctx, Event{FollowerID: actorID, FollowingID: targetID, Kind: EventEdgeDeleted})
	recordCommand("unfollow", nil)
	return nil
}

// Cancel withdraws the actor's pending follow request.
func (s *RelationService) Cancel(ctx context.Context, actorID, edgeID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	edge, err := s.store.GetFollowEdgeByID(ctx, edgeID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("cancel edge %d by %d: already gone, no-op", edgeID, actorID)
		recordCommand("cancel", nil)
		return nil
	}
	if err != nil {
		recordCommand("cancel", err)
		return err
	}
	if edge.FollowerID != actorID {
		recordCommand("cancel", ErrNotOwner)
		return ErrNotOwner
	}
	if edge.Status != models.FollowRequested {
		recordCommand("cancel", ErrInvalidTransition)
		return fmt.Errorf("%w: cannot cancel %s edge", ErrInvalidTransition, edge.Status)
	}

	if err := s.store.DeleteFollowEdge(ctx, edge.ID); err != nil {
		recordCommand("cancel", err)
		return err
	}
	if err := s.store.WriteHistory(ctx, edge.FollowerID, edge.FollowingID, models.ActionCancel, ""); err != nil {
		log.Printf("cancel edge %d: %v", edgeID, err)
	}
	s.publish(ctx, Event{FollowerID: edge.FollowerID, FollowingID: edge.FollowingID, Kind: EventEdgeDeleted})
	recordCommand("cancel", nil)
	return nil
}

// Accept transitions a requested incoming edge to accepted. Only the account
// being followed may accept.
func (s *RelationService) Accept(ctx context.Context, actorID, edgeID int64) (*models.FollowEdge, error) {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	edge, err := s.store.GetFollowEdgeByID(ctx, edgeID)
	if err != nil {
		recordCommand("accept", err)
		return nil, err
	}
	if edge.FollowingID != actorID {
		recordCommand("accept", ErrNotOwner)
		return nil, ErrNotOwner
	}
	if edge.Status == models.FollowAccepted {
		log.Printf("accept edge %d by %d: already accepted, no-op", edgeID, actorID)
		recordCommand("accept", nil)
		return edge, nil
	}

	updated, err := s.store.UpdateFollowEdgeStatus(ctx, edge.ID, models.FollowAccepted)
	if err != nil {
		recordCommand("accept", err)
		return nil, err
	}
	if err := s.store.WriteHistory(ctx, edge.FollowerID, edge.FollowingID, models.ActionAccept, ""); err != nil {
		log.Printf("accept edge %d: %v", edgeID, err)
	}
	s.publish(ctx, Event{FollowerID: edge.FollowerID, FollowingID: edge.FollowingID, Kind: EventEdgeUpdated})

	if s.notifier != nil {
		s.notifier.Notify(edge.FollowerID, "request_accepted", fmt.Sprintf("account %d accepted your follow request", actorID))
	}
	recordCommand("accept", nil)
	return updated, nil
}

// Reject deletes a requested incoming edge. Rejected requests are not
// retained: a later follow creates a fresh edge.
func (s *RelationService) Reject(ctx context.Context, actorID, edgeID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	edge, err := s.store.GetFollowEdgeByID(ctx, edgeID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("reject edge %d by %d: already gone, no-op", edgeID, actorID)
		recordCommand("reject", nil)
		return nil
	}
	if err != nil {
		recordCommand("reject", err)
		return err
	}
	if edge.FollowingID != actorID {
		recordCommand("reject", ErrNotOwner)
		return ErrNotOwner
	}
	if edge.Status != models.FollowRequested {
		recordCommand("reject", ErrInvalidTransition)
		return fmt.Errorf("%w: cannot reject %s edge", ErrInvalidTransition, edge.Status)
	}

	if err := s.store.DeleteFollowEdge(ctx, edge.ID); err != nil {
		recordCommand("reject", err)
		return err
	}
	if err := s.store.WriteHistory(ctx, edge.FollowerID, edge.FollowingID, models.ActionReject, ""); err != nil {
		log.Printf("reject edge %d: %v", edgeID, err)
	}
	s.publish(ctx, Event{FollowerID: edge.FollowerID, FollowingID: edge.FollowingID, Kind: EventEdgeDeleted})
	recordCommand("reject", nil)
	return nil
}

// RemoveFollower deletes the accepted edge target->actor, dropping target
// from the actor's follower list without blocking them.
func (s *RelationService) RemoveFollower(ctx context.Context, actorID, targetID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	edge, err := s.store.GetFollowEdge(ctx, targetID, actorID)
	if err != nil {
		recordCommand("remove_follower", err)
		return err
	}
	if edge == nil || edge.Status != models.FollowAccepted {
		log.Printf("remove follower %d from %d: no accepted edge, no-op", targetID, actorID)
		recordCommand("remove_follower", nil)
		return nil
	}

	if err := s.store.DeleteFollowEdge(ctx, edge.ID); err != nil {
		recordCommand("remove_follower", err)
		return err
	}
	if err := s.store.WriteHistory(ctx, targetID, actorID, models.ActionRemoveFollower, ""); err != nil {
		log.Printf("remove follower %d from %d: %v", targetID, actorID, err)
	}
	s.publish(ctx, Event{FollowerID: targetID, FollowingID: actorID, Kind: EventEdgeDeleted})
	recordCommand("remove_follower", nil)
	return nil
}

// Block creates a block edge and severs follow edges in both directions in
// one transaction. Blocking an already-blocked account is a no-op.
func (s *RelationService) Block(ctx context.Context, actorID, targetID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	_, err := s.store.CreateBlockEdge(ctx, actorID, targetID)
	if errors.Is(err, ErrAlreadyExists) {
		log.Printf("block %d->%d: already blocked, no-op", actorID, targetID)
		recordCommand("block", nil)
		return nil
	}
	if err != nil {
		recordCommand("block", err)
		return err
	}

	if err := s.store.WriteHistory(ctx, actorID, targetID, models.ActionBlock, ""); err != nil {
		log.Printf("block %d->%d: %v", actorID, targetID, err)
	}
	s.publish(ctx, Event{FollowerID: actorID, FollowingID: targetID, Kind: EventBlockCreated})
	recordCommand("block", nil)
	return nil
}

// Unblock deletes the block edge. It does not restore follow edges that were
// severed when the block was created. Absent block is a documented no-op.
func (s *RelationService) Unblock(ctx context.Context, actorID, targetID int64) error {
	ctx, cancel := commandContext(ctx)
	defer cancel()

	deleted, err := s.store.DeleteBlockEdge(ctx, actorID, targetID)
	if err != nil {
		recordCommand("unblock", err)
		return err
	}
	if !deleted {
		log.Printf("unblock %d->%d: no block edge, no-op", actorID, targetID)
		recordCommand("unblock", nil)
		return nil
	}

	if err := s.store.WriteHistory(ctx, actorID, targetID, models.ActionUnblock, ""); err != nil {
		log.Printf("unblock %d->%d: %v", actorID, targetID, err)
	}
	s.publish(ctx, Event{FollowerID: actorID, FollowingID: targetID, Kind: EventBlockDeleted})
	recordCommand("unblock", nil)
	return nil
}

// GetRelationship recomputes the viewer's label toward another account from
// current edges. Never cached, never inferred from partial data.
func (s *RelationService) GetRelationship(ctx context.Context, viewerID, otherID int64) (Label, error) {
	if viewerID == otherID {
		return LabelNone, fmt.Errorf("%w: no relationship with yourself", ErrInvalidOperation)
	}
	outgoing, incoming, err := s.store.GetPairEdges(ctx, viewerID, otherID)
	if err != nil {
		return LabelNone, err
	}
	blockedByMe, blockedMe, err := s.store.BlockState(ctx, viewerID, otherID)
	if err != nil {
		return LabelNone, err
	}
	return ComputeLabel(outgoing, incoming, blockedByMe, blockedMe), nil
}

// publish fans the event out on the in-process bus immediately and on the
// durable path best-effort. A failed durable publish is logged, not fatal:
// the local write already committed and consumers reconcile from the store.
func (s *RelationService) publish(ctx context.Context, event Event) {
	s.bus.Publish(event)
	recordEvent(event.Kind)
	if s.publisher != nil {
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			log.Printf("failed to publish %s event for %d->%d: %v", event.Kind, event.FollowerID, event.FollowingID, err)
		}
	}
}
