package main

import (
	"context"
	"log"
	"os"

	"taxrag/internal/api"
	"taxrag/internal/config"
	"taxrag/internal/embedding"
	"taxrag/internal/engine"
	"taxrag/internal/ingest"
	"taxrag/internal/llm"
	"taxrag/internal/redis"
	"taxrag/internal/storage"
	"taxrag/internal/vectorstore"
	"taxrag/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("TAXRAG_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Checkpoints go to SQL when a database is configured, with redis in
	// front as a read-through cache when available. Without either the
	// engine falls back to process memory and threads reset on restart.
	var checkpoints engine.Checkpointer = engine.NewMemoryCheckpointer()
	dbType := os.Getenv("TAXRAG_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	if _, ok := cfg.Databases[dbType]; ok {
		log.Printf("dbType: %s\n", dbType)
		db, err := storage.Open(dbType, cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, dbType); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		checkpoints = storage.NewThreadStore(db)
	} else {
		log.Printf("no database configured, checkpoints kept in memory")
	}
	if cfg.Redis.Host != "" {
		rdb, err := redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		checkpoints = redis.NewCheckpointCache(rdb, checkpoints)
	}

	provider := cfg.BasicConfig.Provider
	llmClient, err := llm.New(cfg, provider)
	if err != nil {
		log.Fatalf("init %s model: %v", provider, err)
	}

	geminiKey := cfg.Providers["gemini"].APIKey
	embedder, err := embedding.NewGeminiEmbedder(context.Background(), geminiKey, cfg.Ingest.EmbeddingModel, cfg.SearchDeadline())
	if err != nil {
		log.Fatalf("init embedder: %v", err)
	}
	index := vectorstore.NewIndex(embedder)

	ingestService, err := ingest.NewService(context.Background(), index, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		log.Fatalf("init ingest service: %v", err)
	}

	eng := engine.New(cfg, llmClient, index, checkpoints)
	workers := worker.NewManager(eng, 0)
	defer workers.Stop()

	fileBase := cfg.BasicConfig.FileBaseDir
	if fileBase == "" {
		fileBase = "./data/uploads"
	}
	if err := os.MkdirAll(fileBase, 0o755); err != nil {
		log.Fatalf("create upload directory: %v", err)
	}
	handlers := api.NewHandler(workers, ingestService, fileBase)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
