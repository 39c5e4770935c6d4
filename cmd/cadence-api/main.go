package main

import (
	"context"
	"log"
	"net/http"
	"time"

	httpadapter "github.com/cadencehq/cadence-agent/internal/adapters/http"
	"github.com/cadencehq/cadence-agent/internal/adapters/llm"
	firestorestore "github.com/cadencehq/cadence-agent/internal/adapters/storage/firestore"
	memstore "github.com/cadencehq/cadence-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/cadencehq/cadence-agent/internal/adapters/storage/sqlite"
	"github.com/cadencehq/cadence-agent/internal/app/agentctx"
	"github.com/cadencehq/cadence-agent/internal/app/captioning"
	"github.com/cadencehq/cadence-agent/internal/app/guardrail"
	"github.com/cadencehq/cadence-agent/internal/app/orchestrator"
	"github.com/cadencehq/cadence-agent/internal/app/retrieval"
	"github.com/cadencehq/cadence-agent/internal/app/stream"
	"github.com/cadencehq/cadence-agent/internal/app/tools"
	"github.com/cadencehq/cadence-agent/internal/config"
	"github.com/cadencehq/cadence-agent/internal/domain"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	var (
		llmClient domain.LLMClient
		embedder  domain.Embedder
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK LLM client")
		mock := llm.NewMockLLM()
		llmClient = mock
		embedder = mock
	} else {
		log.Println("[LLM] Using Gemini LLM client")
		gemini, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			ProjectID:  cfg.GCPProjectID,
			Location:   cfg.GCPLocation,
			ModelName:  cfg.ModelName,
			EmbedModel: cfg.EmbedModel,
		})
		if err != nil {
			log.Fatalf("error initializing Gemini LLM client: %v", err)
		}
		llmClient = gemini
		embedder = gemini
	}

	var threadStore domain.ThreadStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewThreadStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		threadStore = fsStore

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		sqlStore, err := sqlitestore.NewThreadStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		threadStore = sqlStore

	default:
		log.Println("[STORE] Using in-memory storage")
		threadStore = memstore.NewThreadStore()
	}

	// Content repository. In the full product this port is backed by the
	// CRUD service; the agent runs standalone against the in-memory repo.
	repo := memstore.NewContentRepo()
	index := retrieval.NewIndex(embedder)
	if cfg.UseMockLLM {
		seedDemoContent(ctx, repo, index)
	}

	searcher := retrieval.NewSearcher(llmClient, embedder, index)
	loader := agentctx.NewLoader(repo, searcher)
	guard := guardrail.NewValidator(llmClient)
	captioner := captioning.NewGenerator(llmClient)
	bus := stream.New()
	registry := tools.NewRegistry()

	orch := orchestrator.New(llmClient, threadStore, registry, loader, guard, bus, tools.Deps{
		Repo:      repo,
		Captioner: captioner,
	})

	handler := httpadapter.NewServer(orch, threadStore, bus)

	addr := ":" + cfg.Port
	log.Println("Cadence agent API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}

// seedDemoContent gives the mock-mode server a calendar to talk about.
func seedDemoContent(ctx context.Context, repo *memstore.ContentRepo, index *retrieval.Index) {
	const (
		userID     = domain.UserID("demo-user")
		calendarID = domain.CalendarID("demo-calendar")
	)

	repo.Grant(userID, calendarID)
	repo.AddRule(calendarID, &domain.BrandRule{
		ID:          "rule-tone",
		Title:       "Friendly tone",
		Description: "Write like a helpful friend, never corporate.",
		Enabled:     true,
	})

	post := &domain.Post{
		ID:          "post-1",
		CalendarID:  calendarID,
		Caption:     "Summer sale starts Friday — everything 20% off.",
		Platform:    "instagram",
		Status:      "scheduled",
		ScheduledAt: time.Now().AddDate(0, 0, 2),
		ImageCount:  1,
	}
	repo.AddPost(post)

	if err := index.Upsert(ctx, retrieval.Document{
		Type:       domain.DocTypePost,
		ID:         string(post.ID),
		CalendarID: calendarID,
		Text:       post.Caption,
	}); err != nil {
		log.Printf("seed index: %v", err)
	}
}
