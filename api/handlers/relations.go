package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type targetRequest struct {
	TargetID int64 `json:"target_id" binding:"required"`
}

func bindTarget(c *gin.Context) (int64, bool) {
	var r targetRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return 0, false
	}
	return r.TargetID, true
}

func edgeIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid edge id"})
		return 0, false
	}
	return id, true
}

// Follow creates an outgoing edge toward the target.
func Follow(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	edge, err := svc.Relations.Follow(c.Request.Context(), actor, target)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edge": edge})
}

func Unfollow(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	if err := svc.Relations.Unfollow(c.Request.Context(), actor, target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

// CancelRequest withdraws the actor's pending follow request by edge ID.
func CancelRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	edgeID, ok := edgeIDParam(c)
	if !ok {
		return
	}
	if err := svc.Relations.Cancel(c.Request.Context(), actor, edgeID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request cancelled"})
}

func AcceptRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	edgeID, ok := edgeIDParam(c)
	if !ok {
		return
	}
	edge, err := svc.Relations.Accept(c.Request.Context(), actor, edgeID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edge": edge})
}

func RejectRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	edgeID, ok := edgeIDParam(c)
	if !ok {
		return
	}
	if err := svc.Relations.Reject(c.Request.Context(), actor, edgeID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request rejected"})
}

func RemoveFollower(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	if err := svc.Relations.RemoveFollower(c.Request.Context(), actor, target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follower removed"})
}

func Block(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	if err := svc.Relations.Block(c.Request.Context(), actor, target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "blocked"})
}

func Unblock(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	if err := svc.Relations.Unblock(c.Request.Context(), actor, target); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unblocked"})
}

// GetRelationship returns the actor's label toward the other account.
func GetRelationship(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	other, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || other <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	label, err := svc.Relations.GetRelationship(c.Request.Context(), actor, other)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label})
}

func GetCounts(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || accountID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	counts, err := svc.Aggregation.GetCounts(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func pageParams(c *gin.Context) (cursor int64, pageSize int) {
	cursor, _ = strconv.ParseInt(c.Query("cursor"), 10, 64)
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	return cursor, pageSize
}

func ListFollowers(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	cursor, pageSize := pageParams(c)
	page, err := svc.Aggregation.ListFollowers(c.Request.Context(), actor, cursor, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func ListFollowing(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	cursor, pageSize := pageParams(c)
	page, err := svc.Aggregation.ListFollowing(c.Request.Context(), actor, cursor, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func ListPendingRequests(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	edges, err := svc.Discovery.ListPendingRequests(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": edges})
}

func ListBlocked(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	blocks, err := svc.Discovery.ListBlocked(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blocks})
}

func FollowBackSuggestions(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	accounts, err := svc.Discovery.FollowBackSuggestions(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": accounts})
}

// GetHistory returns the audit trail between the actor and another account.
func GetHistory(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	other, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || other <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := svc.Store.ListHistory(c.Request.Context(), actor, other, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}
