package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"blood-donation-bot/internal/agent"
	"blood-donation-bot/internal/chatbot"
	"blood-donation-bot/internal/config"
	"blood-donation-bot/internal/notify"
	"blood-donation-bot/internal/platform/telegram"
	"blood-donation-bot/internal/request"
)

func main() {
	// 1. Configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Infrastructure
	var db *sql.DB
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		fmt.Printf("Waiting for DB... (%d/10)\n", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Could not connect to DB: %v", err)
	}
	log.Println("Connected to Database.")

	// Run migrations
	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		log.Printf("Migration init failed: %v", err)
	} else {
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Printf("Migration up failed: %v", err)
		} else {
			log.Println("Migrations applied successfully!")
		}
	}

	// 3. Clients
	if cfg.AIAPIKey == "" {
		log.Println("Warning: AI_API_KEY is not set. The AI fallback will return apologies only.")
	}
	aiClient := agent.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)

	var notifier request.Notifier
	if cfg.NotificationsEnabled() {
		tgClient := telegram.NewClient(cfg.TelegramBotToken)
		notifier = notify.NewService(tgClient, cfg.CoordinatorChatID)
	} else {
		log.Println("Warning: TELEGRAM_BOT_TOKEN or COORDINATOR_CHAT_ID is not set. Request alerts are disabled.")
	}

	// 4. Services
	repo := request.NewRepository(db)
	requestSvc := request.NewService(repo, notifier)

	sessionStore := chatbot.NewSessionStore()
	chatbotSvc := chatbot.NewService(sessionStore, requestSvc, aiClient)

	chatbotHandler := chatbot.NewHandler(chatbotSvc)
	requestHandler := request.NewHandler(requestSvc)

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		chatbot.RegisterRoutes(r, chatbotHandler)
		request.RegisterRoutes(r, requestHandler)
	})

	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
