// Command recall runs ingestion and maintenance operations against a
// Recall knowledge store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/scrypster/recall/internal/backup"
	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/engine"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/internal/store"
)

var (
	dbPath       = flag.String("db", "", "Path to SQLite database file (overrides config)")
	engineFlag   = flag.String("engine", "", "Storage engine: sqlite, postgres, memory (overrides config)")
	ingestCmd    = flag.Bool("ingest", false, "Read note content from stdin, analyze and commit it")
	auditCmd     = flag.Bool("audit", false, "Print the consistency audit report and exit")
	suggestCmd   = flag.Bool("suggest", false, "Print maintenance suggestions and exit")
	importConfig = flag.String("import-config", "", "Import application config from a YAML file and exit")
	exportConfig = flag.String("export-config", "", "Export application config to a YAML file and exit")
	snapshotCmd  = flag.Bool("snapshot", false, "Take a database snapshot and exit (sqlite only)")
	snapshotsCmd = flag.Bool("snapshots", false, "List database snapshots and exit (sqlite only)")
	restoreFlag  = flag.String("restore", "", "Restore the database from a snapshot file and exit (sqlite only)")
)

func main() {
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *engineFlag != "" {
		cfg.Storage.StorageEngine = *engineFlag
	}

	ctx := context.Background()

	// Snapshot operations work on the database file directly and need the
	// store closed, so they run before it is opened.
	if *snapshotCmd || *snapshotsCmd || *restoreFlag != "" {
		handleSnapshots(ctx, cfg)
		return
	}

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage backend: %v", err)
	}

	recordStore, err := store.Open(ctx, backend)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer recordStore.Close()

	// Only ingestion talks to the LLM; audit, suggest, and config commands
	// run fine without credentials, so the extractor stays nil for them.
	var extractor llm.Extractor
	if *ingestCmd {
		extractor, err = newExtractor(cfg)
		if err != nil {
			log.Fatalf("Failed to create extractor: %v", err)
		}
	}

	eng := engine.New(recordStore, extractor)

	switch {
	case *importConfig != "":
		handleImportConfig(ctx, recordStore, *importConfig)
	case *exportConfig != "":
		handleExportConfig(recordStore, *exportConfig)
	case *ingestCmd:
		handleIngest(ctx, eng)
	case *auditCmd:
		handleAudit(eng)
	case *suggestCmd:
		handleSuggest(eng)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func sqlitePath(cfg *config.Config) (string, error) {
	if *dbPath != "" {
		return *dbPath, nil
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(cfg.Storage.DataPath, "recall.db"), nil
}

func openBackend(cfg *config.Config) (storage.CollectionStore, error) {
	switch cfg.Storage.StorageEngine {
	case "sqlite", "":
		path, err := sqlitePath(cfg)
		if err != nil {
			return nil, err
		}
		return sqlite.NewCollectionStore(path)
	case "postgres":
		return postgres.NewCollectionStore(cfg.Storage.PostgresDSN)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage engine: %q", cfg.Storage.StorageEngine)
	}
}

func newExtractor(cfg *config.Config) (llm.Extractor, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return llm.NewExtractor(llm.Config{
			Provider:     "ollama",
			Model:        cfg.LLM.OllamaModel,
			BaseURL:      cfg.LLM.OllamaURL,
			RateLimitRPS: cfg.LLM.RateLimitRPS,
		})
	default:
		return llm.NewExtractor(llm.Config{
			Provider:     "gemini",
			APIKey:       cfg.LLM.GeminiAPIKey,
			Model:        cfg.LLM.GeminiModel,
			RateLimitRPS: cfg.LLM.RateLimitRPS,
		})
	}
}

func handleIngest(ctx context.Context, eng *engine.Engine) {
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}
	text := string(content)
	if text == "" {
		log.Fatal("No content on stdin")
	}

	// Surface engine notifications (save confirmations, audit warnings)
	// while the commit runs.
	cancel := eng.Store().Subscribe(func(evt store.Event) {
		if evt.Kind == store.EventNotification {
			log.Printf("[%s] %s", evt.Level, evt.Message)
		}
	})
	defer cancel()

	log.Println("Analyzing content...")
	preview, err := eng.Analyze(ctx, text, nil)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Summary:  %s\n", preview.Result.Summary)
	fmt.Printf("Category: %s\n", preview.Result.Category)
	fmt.Printf("Entities: %d, Tasks: %d, Knowledge: %d\n",
		len(preview.Result.Entities), len(preview.Result.Tasks), len(preview.Result.Knowledge))
	for i, target := range preview.KnowledgeMerges {
		fmt.Printf("Knowledge item %d will be appended to existing topic %s\n", i+1, target)
	}
	for _, n := range preview.SimilarNotes {
		fmt.Printf("Similar existing note: %s\n", n.Summary)
	}

	note, report, err := eng.Commit(ctx, preview.Result, text, nil, preview.KnowledgeMerges)
	if err != nil {
		log.Fatalf("Commit failed: %v", err)
	}

	fmt.Printf("\nSaved note %s\n", note.ID)
	fmt.Printf("  Entities:  %d\n", len(report.EntityIDs))
	fmt.Printf("  Tasks:     %d\n", len(report.TaskIDs))
	fmt.Printf("  Knowledge: %d\n", len(report.KnowledgeIDs))
	if report.HasWarnings() {
		fmt.Printf("  Warnings:  %d vague entities, %d tasks without context\n",
			report.VagueEntityCount, report.ContextlessTasks)
	}
}

func handleAudit(eng *engine.Engine) {
	now := time.Now()

	incomplete := eng.IncompleteEntities()
	contextless := eng.ContextlessTasks()
	orphans := eng.OrphanProjects()
	stale := eng.StaleEntities(now)
	duplicates := eng.ReviewDuplicates()

	fmt.Println("Consistency audit")
	fmt.Println()

	fmt.Printf("Incomplete entities: %d\n", len(incomplete))
	for _, ent := range incomplete {
		fmt.Printf("  - %s (%s)\n", ent.Name, ent.Type)
	}

	fmt.Printf("Tasks without context: %d\n", len(contextless))
	for _, task := range contextless {
		fmt.Printf("  - %s\n", task.Description)
	}

	fmt.Printf("Projects without a company: %d\n", len(orphans))
	for _, ent := range orphans {
		fmt.Printf("  - %s\n", ent.Name)
	}

	fmt.Printf("Stale entities: %d\n", len(stale))
	for _, ent := range stale {
		fmt.Printf("  - %s (%s)\n", ent.Name, ent.Type)
	}

	fmt.Printf("Likely duplicate notes: %d\n", len(duplicates))
	for _, pair := range duplicates {
		fmt.Printf("  - %.0f%%: %q / %q\n", pair.Score*100, pair.NoteA.Summary, pair.NoteB.Summary)
	}

	total := len(incomplete) + len(contextless) + len(orphans) + len(stale) + len(duplicates)
	if total > 0 {
		os.Exit(1)
	}
}

func handleSuggest(eng *engine.Engine) {
	suggestions := eng.Suggestions(time.Now())
	if len(suggestions) == 0 {
		fmt.Println("No suggestions")
		return
	}

	for i, s := range suggestions {
		fmt.Printf("%d. [%s] %s\n", i+1, s.Type, s.Title)
		fmt.Printf("   %s\n", s.Reason)
	}
}

func handleSnapshots(ctx context.Context, cfg *config.Config) {
	if cfg.Storage.StorageEngine != "sqlite" && cfg.Storage.StorageEngine != "" {
		log.Fatalf("Snapshots require the sqlite storage engine, not %q", cfg.Storage.StorageEngine)
	}

	path, err := sqlitePath(cfg)
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}

	manager, err := backup.NewManager(backup.Config{
		DBPath:      path,
		SnapshotDir: filepath.Join(cfg.Storage.DataPath, "snapshots"),
		Verify:      true,
	})
	if err != nil {
		log.Fatalf("Failed to create snapshot manager: %v", err)
	}

	switch {
	case *restoreFlag != "":
		if err := manager.Restore(ctx, *restoreFlag); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		log.Printf("Database restored from %s", *restoreFlag)

	case *snapshotCmd:
		snap, err := manager.Snapshot(ctx)
		if err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		log.Printf("Snapshot written: %s (%.2f MB)", snap.Path, float64(snap.Size)/(1024*1024))

	case *snapshotsCmd:
		snapshots, err := manager.List()
		if err != nil {
			log.Fatalf("Failed to list snapshots: %v", err)
		}
		if len(snapshots) == 0 {
			fmt.Println("No snapshots found")
			return
		}
		for i, snap := range snapshots {
			fmt.Printf("%d. %s\n", i+1, snap.Path)
			fmt.Printf("   Size: %.2f MB\n", float64(snap.Size)/(1024*1024))
			fmt.Printf("   Created: %s (%s ago)\n",
				snap.CreatedAt.Format(time.RFC3339),
				time.Since(snap.CreatedAt).Round(time.Minute))
		}
	}
}

func handleImportConfig(ctx context.Context, recordStore *store.RecordStore, path string) {
	cfg, err := config.LoadAppConfigFile(path)
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	if err := recordStore.SetConfig(ctx, *cfg); err != nil {
		log.Fatalf("Failed to store config: %v", err)
	}
	log.Printf("Imported application config from %s", path)
}

func handleExportConfig(recordStore *store.RecordStore, path string) {
	cfg := recordStore.Config()
	if err := config.SaveAppConfigFile(path, &cfg); err != nil {
		log.Fatalf("Failed to write config file: %v", err)
	}
	log.Printf("Exported application config to %s", path)
}
