package relations

import (
	"testing"

	"socialgraph/models"

	"github.com/stretchr/testify/assert"
)

func edge(status models.FollowStatus) *models.FollowEdge {
	return &models.FollowEdge{FollowerID: 1, FollowingID: 2, Status: status}
}

func TestComputeLabel(t *testing.T) {
	tests := []struct {
		name        string
		outgoing    *models.FollowEdge
		incoming    *models.FollowEdge
		blockedByMe bool
		blockedMe   bool
		want        Label
	}{
		{"no edges", nil, nil, false, false, LabelNone},
		{"outgoing requested", edge(models.FollowRequested), nil, false, false, LabelRequested},
		{"outgoing accepted", edge(models.FollowAccepted), nil, false, false, LabelFollowing},
		{"incoming accepted", nil, edge(models.FollowAccepted), false, false, LabelFollower},
		{"both accepted", edge(models.FollowAccepted), edge(models.FollowAccepted), false, false, LabelMutual},
		{"outgoing requested incoming accepted", edge(models.FollowRequested), edge(models.FollowAccepted), false, false, LabelRequested},
		{"incoming requested only", nil, edge(models.FollowRequested), false, false, LabelNone},
		{"blocked by me wins over edges", edge(models.FollowAccepted), edge(models.FollowAccepted), true, false, LabelBlocked},
		{"blocked by me with no edges", nil, nil, true, false, LabelBlocked},
		{"blocked me reads as none", edge(models.FollowAccepted), edge(models.FollowAccepted), false, true, LabelNone},
		{"both blocks, blocker view wins", nil, nil, true, true, LabelBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLabel(tt.outgoing, tt.incoming, tt.blockedByMe, tt.blockedMe)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ComputeLabel must be deterministic: identical inputs always yield the same
// label, regardless of call order.
func TestComputeLabelDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, LabelMutual, ComputeLabel(edge(models.FollowAccepted), edge(models.FollowAccepted), false, false))
		assert.Equal(t, LabelBlocked, ComputeLabel(nil, nil, true, true))
	}
}
