package routes

import (
	"socialgraph/api/handlers"
	"socialgraph/api/middleware"
	"socialgraph/relations"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine, tokens *relations.TokenStore) *gin.RouterGroup {
	router.GET("/metrics", middleware.MetricsHandler())

	public := router.Group("/api/v1/")
	{
		public.POST("accounts/register", handlers.RegisterAccount)
	}

	authed := router.Group("/api/v1/")
	authed.Use(middleware.AuthMiddleware(tokens))
	{
		authed.POST("relations/follow", handlers.Follow)
		authed.POST("relations/unfollow", handlers.Unfollow)
		authed.POST("relations/requests/:id/cancel", handlers.CancelRequest)
		authed.POST("relations/requests/:id/accept", handlers.AcceptRequest)
		authed.POST("relations/requests/:id/reject", handlers.RejectRequest)
		authed.POST("relations/remove-follower", handlers.RemoveFollower)
		authed.POST("relations/block", handlers.Block)
		authed.POST("relations/unblock", handlers.Unblock)

		authed.GET("relations/requests", handlers.ListPendingRequests)
		authed.GET("relations/blocked", handlers.ListBlocked)
		authed.GET("relations/followers", handlers.ListFollowers)
		authed.GET("relations/following", handlers.ListFollowing)
		authed.GET("relations/suggestions", handlers.FollowBackSuggestions)
		authed.GET("relations/history/:id", handlers.GetHistory)
		authed.GET("relations/label/:id", handlers.GetRelationship)

		authed.GET("accounts/counts/:id", handlers.GetCounts)
		authed.GET("accounts/search", handlers.SearchAccounts)
		authed.POST("accounts/privacy", handlers.SetPrivacy)

		authed.GET("ws", handlers.WSConnect)
	}
	return authed
}
