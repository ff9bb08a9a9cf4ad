package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"gymai/internal/chat"
	"gymai/internal/database"
	"gymai/internal/handlers"
	"gymai/internal/llm"
	"gymai/internal/middleware"
	"gymai/internal/notify"
	"gymai/internal/routine"
	"gymai/internal/scheduler"
	"gymai/internal/vision"
	"gymai/internal/ws"
)

func main() {
	// Load .env if present; real environment wins over file values.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	// Database path: default ./gymai.db, override with GYMAI_DB_PATH.
	dbPath := os.Getenv("GYMAI_DB_PATH")
	if dbPath == "" {
		dbPath = "gymai.db"
	}

	// Listen address: default :8080, override with GYMAI_ADDR.
	addr := os.Getenv("GYMAI_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Open database and run migrations.
	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Database ready: %s", filepath.Clean(dbPath))

	// LLM provider. Running without one is allowed: chat still works via
	// the offline generator, only initial creation is refused.
	provider, err := llm.NewProviderFromSettings(db)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			log.Println("No LLM provider configured; routine creation disabled, chat uses the offline generator")
		} else {
			log.Fatalf("Failed to configure LLM provider: %v", err)
		}
		provider = nil
	} else {
		log.Printf("LLM provider: %s", provider.Name())
	}

	engine := routine.NewEngine(provider, llm.TemperatureFromSettings(db))
	analyzer := vision.NewAnalyzer(provider)

	hub := ws.NewHub()
	orch := chat.NewOrchestrator(db, engine, analyzer, hub)
	wsServer := ws.NewServer(hub, orch)

	routines := &handlers.Routines{
		DB:     db,
		Engine: engine,
		Orch:   orch,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/create_routine", routines.Create)
	mux.HandleFunc("POST /api/modify_routine/{routineID}", routines.Modify)
	mux.HandleFunc("GET /api/routines", routines.List)
	mux.HandleFunc("GET /api/routines/{routineID}", routines.Show)
	mux.HandleFunc("DELETE /api/routines/{routineID}", routines.Delete)
	mux.HandleFunc("GET /api/routines/{routineID}/chat", routines.ChatHistory)
	mux.HandleFunc("GET /ws/{routineID}", wsServer.Handle)
	mux.HandleFunc("GET /health", routines.Health)

	// Background maintenance: chat retention and WAL checkpoints.
	sched := scheduler.New(db)
	sched.Start()
	defer sched.Stop()

	// Opt-in startup probe of the notification channels.
	if os.Getenv("GYMAI_NOTIFY_TEST") == "1" {
		if err := notify.TestConnection(db); err != nil {
			log.Printf("Notification test failed: %v", err)
		} else {
			log.Println("Notification test succeeded")
		}
	}

	log.Printf("GymAI listening on %s", addr)
	if err := http.ListenAndServe(addr, middleware.RequestLogger(mux)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
