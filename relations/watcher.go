package relations

import (
	"context"
	"log"
	"sync"
)

// RelationshipWatcher observes one (viewer, other) pair and emits the
// viewer's label whenever it changes. Two triggers feed it: the in-process
// bus (optimistic, instant) and the durable change feed (authoritative).
// Every trigger recomputes the label from current edges, so whichever path
// fires last simply overwrites — payloads are never diffed or merged.
type RelationshipWatcher struct {
	store    *Store
	viewerID int64
	otherID  int64

	mu         sync.Mutex
	current    Label
	optimistic bool

	updates chan Label
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatchRelationship starts a watcher for the pair. feed may be nil, in which
// case only in-process events trigger reconciliation.
func WatchRelationship(ctx context.Context, store *Store, bus *EventBus, feed ChangeFeed, viewerID, otherID int64) (*RelationshipWatcher, error) {
	ctx, cancel := context.WithCancel(ctx)

	w := &RelationshipWatcher{
		store:    store,
		viewerID: viewerID,
		otherID:  otherID,
		current:  LabelNone,
		updates:  make(chan Label, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	local, unsubscribe := bus.Subscribe(viewerID)

	var durable <-chan Event
	if feed != nil {
		ch, err := feed.Subscribe(ctx, viewerID)
		if err != nil {
			unsubscribe()
			cancel()
			return nil, err
		}
		durable = ch
	}

	if label, err := w.recompute(ctx); err == nil {
		w.emit(label, false)
	} else {
		log.Printf("watcher %d->%d: initial recompute failed: %v", viewerID, otherID, err)
	}

	go func() {
		defer close(w.done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-local:
				if !ok {
					return
				}
				w.reconcile(ctx, event)
			case event, ok := <-durable:
				if !ok {
					durable = nil
					continue
				}
				w.reconcile(ctx, event)
			}
		}
	}()
	return w, nil
}

// Updates delivers label changes. Slow consumers drop intermediate labels;
// the latest one always arrives via Current.
func (w *RelationshipWatcher) Updates() <-chan Label {
	return w.updates
}

func (w *RelationshipWatcher) Current() Label {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// SetOptimistic shows a label before the command round trip confirms it.
// The next reconciliation overwrites it with authoritative state, which is
// also how a failed command gets reverted.
func (w *RelationshipWatcher) SetOptimistic(label Label) {
	w.emit(label, true)
}

// Refresh forces a recomputation from the store, e.g. after a command error
// to revert an optimistic label.
func (w *RelationshipWatcher) Refresh(ctx context.Context) error {
	label, err := w.recompute(ctx)
	if err != nil {
		return err
	}
	w.emit(label, false)
	return nil
}

func (w *RelationshipWatcher) Close() {
	w.cancel()
	<-w.done
}

func (w *RelationshipWatcher) reconcile(ctx context.Context, event Event) {
	if !event.Touches(w.otherID) {
		// Event concerns the viewer and some third account.
		return
	}
	recomputeCtx, cancel := commandContext(ctx)
	defer cancel()
	label, err := w.recompute(recomputeCtx)
	if err != nil {
		// Stale data is allowed during an outage; never assert state the
		// store cannot confirm.
		log.Printf("watcher %d->%d: recompute failed, keeping stale label: %v", w.viewerID, w.otherID, err)
		return
	}
	w.emit(label, false)
}

func (w *RelationshipWatcher) recompute(ctx context.Context) (Label, error) {
	outgoing, incoming, err := w.store.GetPairEdges(ctx, w.viewerID, w.otherID)
	if err != nil {
		return LabelNone, err
	}
	blockedByMe, blockedMe, err := w.store.BlockState(ctx, w.viewerID, w.otherID)
	if err != nil {
		return LabelNone, err
	}
	return ComputeLabel(outgoing, incoming, blockedByMe, blockedMe), nil
}

func (w *RelationshipWatcher) emit(label Label, optimistic bool) {
	w.mu.Lock()
	changed := w.current != label || (w.optimistic && !optimistic)
	w.current = label
	w.optimistic = optimistic
	w.mu.Unlock()
	if !changed {
		return
	}
	select {
	case w.updates <- label:
	default:
	}
}
