package handlers

import (
	"net/http"
	"time"

	"socialgraph/db"
	"socialgraph/models"

	"github.com/gin-gonic/gin"
)

// RegisterAccount creates a directory record and issues a session token.
func RegisterAccount(c *gin.Context) {
	type req struct {
		Nickname  string `json:"nickname" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		AvatarURL string `json:"avatar_url"`
		Private   bool   `json:"private"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account := &models.Account{
		Nickname:  r.Nickname,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		AvatarURL: r.AvatarURL,
		Private:   r.Private,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.GetWriteDB(c.Request.Context()).Create(account).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "nickname already taken"})
		return
	}

	token, err := svc.Tokens.IssueToken(c.Request.Context(), account.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "token": token})
}

// SetPrivacy flips the actor's privacy flag. The flag gates whether new
// follows start as requested or accepted.
func SetPrivacy(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	type req struct {
		Private bool `json:"private"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	err := db.GetWriteDB(c.Request.Context()).Model(&models.Account{}).
		Where("id = ?", actor).
		Updates(map[string]interface{}{"private": r.Private, "updated_at": time.Now()}).Error
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "privacy updated"})
}

// SearchAccounts runs a directory search enriched with the actor's
// relationship label toward every hit.
func SearchAccounts(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	results, err := svc.Discovery.SearchAccounts(c.Request.Context(), actor, c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
