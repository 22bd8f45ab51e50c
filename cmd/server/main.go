package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/api"
	"chatsync-backend-go/internal/config"
	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/middleware"
	"chatsync-backend-go/internal/notifications"
	"chatsync-backend-go/internal/ws"
	"chatsync-backend-go/pkg/cache"
	"chatsync-backend-go/pkg/mailer"
	"chatsync-backend-go/pkg/messagequeue"
)

// fcmPushSender adapts the FCM v1 sender to the core.PushSender interface.
type fcmPushSender struct {
	sender *notifications.FCMSender
}

func (s fcmPushSender) Send(ctx context.Context, token string, n core.PushNotification, data map[string]string) error {
	return s.sender.Send(ctx, token, notifications.Notification{Title: n.Title, Body: n.Body}, data)
}

// loadServiceAccountJSON returns the raw service account key, from file or
// base64, for clients that cannot take a credentials option (the FCM sender).
func loadServiceAccountJSON(appConfig *config.Config) ([]byte, error) {
	if appConfig.GoogleApplicationCredentials != "" {
		return os.ReadFile(appConfig.GoogleApplicationCredentials)
	}
	if appConfig.FirebaseServiceAccountJSONBase64 != "" {
		return base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
	}
	return nil, nil
}

func main() {
	// --- Logger ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	// --- Firebase Admin SDK (Firestore, Auth, Storage) ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer db.CloseFirebase()

	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	storageBucket := db.GetStorageBucket()
	if firestoreClient == nil || firebaseAuthClient == nil || storageBucket == nil {
		zapLogger.Fatal("Firebase clients are nil after initialization")
	}

	// --- Presence store (Redis) ---
	var presenceStore cache.Cache
	if appConfig.RedisAddr != "" {
		presenceStore, err = cache.NewRedisCache(initCtx, cache.RedisCacheConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer presenceStore.Close()
		zapLogger.Info("Redis presence store connected", zap.String("addr", appConfig.RedisAddr))
	} else {
		presenceStore = cache.NewInMemoryCache()
		zapLogger.Warn("REDIS_ADDR not set; presence records are process-local only")
	}

	// --- Message queue (RabbitMQ, optional) ---
	var queue messagequeue.MessageQueue
	if appConfig.AMQPURL != "" {
		queue, err = messagequeue.NewRabbitMQService(messagequeue.RabbitMQConfig{URL: appConfig.AMQPURL})
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer queue.Close()
		zapLogger.Info("RabbitMQ connected")
	} else {
		zapLogger.Warn("AMQP_URL not set; push notifications are sent inline")
	}

	// --- Push sender (FCM v1) ---
	var pushSender core.PushSender
	credentialsJSON, err := loadServiceAccountJSON(appConfig)
	if err != nil {
		zapLogger.Fatal("Failed to read service account credentials", zap.Error(err))
	}
	if len(credentialsJSON) > 0 {
		fcmSender, err := notifications.NewFCMSender(initCtx, appConfig.FirebaseProjectID, credentialsJSON)
		if err != nil {
			zapLogger.Fatal("Failed to initialize FCM sender", zap.Error(err))
		}
		pushSender = fcmPushSender{sender: fcmSender}
	} else {
		zapLogger.Warn("No service account JSON available; push notifications disabled")
	}

	// --- Mailer (SMTP, optional) ---
	var verificationMail core.VerificationMailSender
	if appConfig.SMTPHost != "" {
		smtpMailer, err := mailer.New(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize mailer", zap.Error(err))
		}
		verificationMail = smtpMailer
	} else {
		zapLogger.Warn("SMTP_HOST not set; verification email resend disabled")
	}

	// --- Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	messageRepo := db.NewFirestoreMessageRepository(firestoreClient)
	conversationRepo := db.NewFirestoreConversationRepository(firestoreClient)
	friendRepo := db.NewFirestoreFriendRepository(firestoreClient)
	blobStore := db.NewCloudStorageBlobStore(storageBucket, appConfig.StorageBucket)

	// --- Services ---
	var notificationService core.NotificationService
	if pushSender != nil {
		notificationService = core.NewNotificationDispatcher(userRepo, queue, pushSender, zapLogger)
	}
	userService := core.NewUserService(userRepo, blobStore)
	messageService := core.NewMessageService(messageRepo, conversationRepo, notificationService, zapLogger)
	conversationService := core.NewConversationService(conversationRepo, userRepo, zapLogger)
	friendService := core.NewFriendService(friendRepo, userRepo)
	presenceTracker := core.NewPresenceTracker(presenceStore, zapLogger)
	verificationService := core.NewVerificationService(firebaseAuthClient, verificationMail, zapLogger)
	zapLogger.Info("Core services initialized")

	// Queued pushes are delivered by this process; the consumer loop ends
	// when the AMQP connection closes on shutdown.
	if queue != nil && notificationService != nil {
		dispatcher := notificationService.(interface{ StartConsumer() error })
		go func() {
			if err := dispatcher.StartConsumer(); err != nil {
				zapLogger.Error("Notification consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- Realtime hub ---
	hub := ws.NewHub(messageService, presenceTracker, zapLogger)
	wsHandler := ws.NewHandler(hub, presenceTracker, zapLogger)

	// --- HTTP engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
	} else {
		zapLogger.Warn("CLIENT_URL not set; CORS middleware skipped")
	}

	api.SetupRoutes(
		router,
		zapLogger,
		userService,
		messageService,
		conversationService,
		friendService,
		presenceTracker,
		verificationService,
		wsHandler,
	)

	// --- Serve with graceful shutdown ---
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}
