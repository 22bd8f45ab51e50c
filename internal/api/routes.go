package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/middleware"
	"chatsync-backend-go/internal/ws"
)

// SetupRoutes wires all routes. Global middleware (logging, recovery, CORS)
// is applied to the router in main before this is called.
//
// Every route except /health and the verification-email resend requires both
// a valid token and a verified email address.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	userService core.UserService,
	messageService core.MessageService,
	conversationService core.ConversationService,
	friendService core.FriendService,
	presenceTracker *core.PresenceTracker,
	verificationService *core.VerificationService,
	wsHandler *ws.Handler,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, logger)

	authHandler := NewAuthHandler(userService, verificationService, logger)
	userHandler := NewUserHandler(userService, logger)
	chatHandler := NewChatHandler(messageService, userService, logger)
	conversationHandler := NewConversationHandler(conversationService)
	friendHandler := NewFriendHandler(friendService)
	presenceHandler := NewPresenceHandler(presenceTracker)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users", authMW.VerifyToken())
		{
			// Reachable before email verification: the bootstrap call and the
			// way out of the unverified state.
			usersGroup.POST("/initialize", authHandler.InitializeUserProfile)
			usersGroup.POST("/verification-email", authHandler.ResendVerificationEmail)

			verified := usersGroup.Group("", authMW.RequireVerifiedEmail())
			{
				verified.GET("", userHandler.ListUsers)
				verified.GET("/me", userHandler.GetCurrentUserProfile)
				verified.PATCH("/me", userHandler.UpdateCurrentUserProfile)
				verified.PUT("/me/photo", userHandler.UploadProfilePhoto)
				verified.PUT("/me/fcm-token", userHandler.RegisterFCMToken)
			}
		}

		chatsGroup := apiV1.Group("/chats", authMW.VerifyToken(), authMW.RequireVerifiedEmail())
		{
			chatsGroup.POST("/:peerUid/messages", chatHandler.SendMessage)
			chatsGroup.GET("/:peerUid/messages", chatHandler.GetHistory)
		}

		apiV1.GET("/conversations", authMW.VerifyToken(), authMW.RequireVerifiedEmail(), conversationHandler.ListConversations)

		friendsGroup := apiV1.Group("/friends", authMW.VerifyToken(), authMW.RequireVerifiedEmail())
		{
			friendsGroup.POST("", friendHandler.AddFriend)
			friendsGroup.GET("", friendHandler.ListFriends)
			friendsGroup.GET("/search", friendHandler.SearchUsers)
		}

		apiV1.GET("/presence/:uid", authMW.VerifyToken(), authMW.RequireVerifiedEmail(), presenceHandler.GetPresence)
	}

	// Realtime surface. Token auth happens before the upgrade.
	router.GET("/ws", authMW.VerifyToken(), authMW.RequireVerifiedEmail(), wsHandler.Serve)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1, /ws and /health")
}
