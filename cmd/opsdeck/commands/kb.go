package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/kb"
	kbpostgres "github.com/opsdeck/opsdeck/internal/kb/postgres"
	"github.com/opsdeck/opsdeck/internal/llm"
	"github.com/opsdeck/opsdeck/internal/pkg/postgres"
	"github.com/spf13/cobra"
)

var kbComponent string

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Knowledge base maintenance",
}

var kbLoadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Load markdown runbooks from a directory into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		db, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnectAttempts: cfg.Database.ConnectAttempts,
		})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if cfg.Database.MigrationsURL != "" {
			if err := postgres.Migrate(cfg.Database.MigrationsURL, cfg.Database.URL); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}

		llmClient := llm.New(llm.Config{
			BaseURL:        cfg.LLM.BaseURL,
			APIKey:         cfg.LLM.APIKey,
			Model:          cfg.LLM.Model,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Timeout:        cfg.LLM.Timeout,
			MaxRetries:     cfg.LLM.MaxRetries,
			RetryInterval:  cfg.LLM.RetryInterval,
			RateLimit:      cfg.LLM.RateLimit,
			RateBurst:      cfg.LLM.RateBurst,
		})

		kbService := kb.NewService(kbpostgres.NewRepository(db), llmClient, kb.Config{
			TopK:          cfg.KB.TopK,
			ChunkSize:     cfg.KB.ChunkSize,
			ChunkOverlap:  cfg.KB.ChunkOverlap,
			EmbedCacheTTL: cfg.KB.EmbedCacheTTL,
		})

		dir := args[0]
		loaded := 0
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".md") {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			doc, chunks, err := kbService.Ingest(ctx,
				documentTitle(path, string(content)),
				path,
				kbComponent,
				string(content),
			)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}

			fmt.Printf("loaded %s (%s, %d chunks)\n", path, doc.ID, chunks)
			loaded++
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Printf("loaded %d documents\n", loaded)
		return nil
	},
}

// documentTitle uses the first markdown heading, falling back to the
// file name.
func documentTitle(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func init() {
	kbLoadCmd.Flags().StringVar(&kbComponent, "component", "", "Component the documents relate to")
	kbCmd.AddCommand(kbLoadCmd)
}
