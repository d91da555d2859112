package relations

import "socialgraph/models"

// Label is the derived relationship classification shown to a viewer.
// It is never persisted; it is always recomputed from current edges.
type Label string

const (
	LabelNone      Label = "none"
	LabelRequested Label = "requested"
	LabelFollowing Label = "following"
	LabelFollower  Label = "follower"
	LabelMutual    Label = "mutual"
	LabelBlocked   Label = "blocked"
)

// ComputeLabel derives the viewer's relationship label from the pair of edges
// plus block state. This is the single source of truth for every observer.
//
// A block by the viewer wins over any edge state. A block by the other party
// reads as "none" so the blocked account cannot learn it is blocked.
func ComputeLabel(outgoing, incoming *models.FollowEdge, blockedByMe, blockedMe bool) Label {
	if blockedByMe {
		return LabelBlocked
	}
	if blockedMe {
		return LabelNone
	}

	outAccepted := outgoing != nil && outgoing.Status == models.FollowAccepted
	inAccepted := incoming != nil && incoming.Status == models.FollowAccepted

	switch {
	case outgoing != nil && outgoing.Status == models.FollowRequested:
		return LabelRequested
	case outAccepted && inAccepted:
		return LabelMutual
	case outAccepted:
		return LabelFollowing
	case inAccepted:
		return LabelFollower
	default:
		return LabelNone
	}
}
