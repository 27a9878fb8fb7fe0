package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"squadlink_server/routes"
	"squadlink_server/services"
	"squadlink_server/socket"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
)

func main() {
	cfg, err := LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Redis backs the retry queue's durable state
	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.RedisAddress,
		DB:              cfg.RedisDB,
		Password:        cfg.RedisPassword,
		MaxRetries:      3,
		ConnMaxIdleTime: 3 * time.Minute,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Kafka carries fire-and-forget notifications; the server runs without it
	kafkaConn, err := kafka.DialLeader(context.Background(), "tcp", cfg.KafkaAddress, cfg.KafkaTopic, 0)
	if err != nil {
		log.Printf("⚠️ Kafka unavailable, notifications will not be published: %v", err)
	} else {
		defer kafkaConn.Close()
	}

	// Socket.IO server for match request subscriptions
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	clock := clockwork.NewRealClock()

	// Initialize Services
	notificationService := &services.NotificationService{Kafka: kafkaConn, Socket: socketServer}
	retryQueue := services.NewRetryQueueService(&services.RedisKVStore{Client: redisClient}, clock)
	services.RegisterDefaultExecutors(retryQueue, dynamoService, notificationService)
	if err := retryQueue.Load(context.Background()); err != nil {
		log.Printf("⚠️ Could not restore retry queue state: %v", err)
	}

	compatibilityService := &services.CompatibilityService{Clock: clock}
	matchService := &services.MatchService{Dynamo: dynamoService, Compatibility: compatibilityService, Clock: clock}
	userProfileService := &services.UserProfileService{Dynamo: dynamoService, Queue: retryQueue, Clock: clock}
	matchRequestService := &services.MatchRequestService{Dynamo: dynamoService, Queue: retryQueue, Notifier: notificationService, Clock: clock}

	// Background jobs: queue tick, queue prune, request expiry sweep
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.QueueTickSeconds)*time.Second),
		gocron.NewTask(retryQueue.ProcessQueue, context.Background()),
	); err != nil {
		log.Fatal(err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.QueueCleanupSeconds)*time.Second),
		gocron.NewTask(retryQueue.CleanupExpired, context.Background()),
	); err != nil {
		log.Fatal(err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.RequestExpirySweepSeconds)*time.Second),
		gocron.NewTask(matchRequestService.ExpireStaleRequests, context.Background()),
	); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Println("Error while shutting down scheduler")
		}
	}()

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to SquadLink")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterUserProfileRoutes(r, userProfileService)
	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterMatchRequestRoutes(r, matchRequestService)
	routes.RegisterQueueRoutes(r, retryQueue)
	r.Handle("/socket.io/", socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsHandler))
}
