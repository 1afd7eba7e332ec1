package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/battleofcoins/battle-of-coins/internal/db"
	"github.com/battleofcoins/battle-of-coins/internal/judge"
	"github.com/battleofcoins/battle-of-coins/internal/middleware"
	"github.com/battleofcoins/battle-of-coins/internal/service"
	"github.com/battleofcoins/battle-of-coins/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	registry, err := judge.LoadRegistry(os.Getenv("OPENAI_MODELS_FILE"))
	if err != nil {
		log.Fatal("Failed to load judge models:", err)
	}

	judgeClient := judge.NewClient(judge.NewOpenAIOracle(judge.OracleConfigFromEnv()))
	orchestrator := service.NewOrchestrator(judgeClient, registry, store.NewBattleStore(database), service.Config{})

	router := newRouter(sessionManager, orchestrator, registry)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("Server starting on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
