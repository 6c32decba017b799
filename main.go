package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"proposalgen/collections"
	"proposalgen/config"
	"proposalgen/handlers"
	"proposalgen/logx"
	"proposalgen/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.Options{Environment: logx.ParseEnvironment(cfg.Env)})
	log := logx.Component("main")

	app := pocketbase.New()

	store := services.NewDirTemplateStore(cfg.TemplatesDir)
	assembler := services.NewAssembler(
		services.DefaultCatalog(),
		services.NewDefaultPriceCalculator(),
		services.WithInstallmentCount(cfg.InstallmentCount),
	)
	generator := services.NewDocumentGenerator(assembler, services.NewDocxRenderer(store))

	app.RootCmd.AddCommand(templatesCommand(store))

	var redisClient *redis.Client
	var counter services.CodeCounter = services.NewRecordCodeCounter(app)

	// Create collections, seed data and run migrations on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Warn().Err(err).Msg("seed data failed")
		}
		if err := collections.BackfillProposalDurations(app); err != nil {
			log.Warn().Err(err).Msg("duration backfill failed")
		}
		if err := collections.MigrateLegacySubTypes(app); err != nil {
			log.Warn().Err(err).Msg("sub type migration failed")
		}

		if cfg.Redis.Enabled() {
			c, err := newRedisCounter(context.Background(), app, cfg.Redis)
			if err != nil {
				log.Warn().Err(err).Msg("redis unavailable, numbering proposals from record count")
			} else {
				redisClient = c.client
				counter = c.counter
				log.Info().Msg("proposal codes allocated from redis")
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.BindFunc(handlers.RequestLogger())

		calc := assembler.Calculator()

		// ── Catalog & pricing ────────────────────────────────────
		se.Router.GET("/api/services", handlers.HandleServiceCatalog(assembler.Catalog()))
		se.Router.GET("/api/pricing/quote", handlers.HandlePricingQuote(calc))
		se.Router.GET("/api/pricing/sheet", handlers.HandlePriceSheet(calc))

		// ── Clients ──────────────────────────────────────────────
		se.Router.GET("/api/clients", handlers.HandleClientList(app))
		se.Router.POST("/api/clients", handlers.HandleClientCreate(app))
		se.Router.GET("/api/clients/export", handlers.HandleClientExport(app))
		se.Router.GET("/api/clients/import/template", handlers.HandleClientTemplateDownload())
		se.Router.POST("/api/clients/import", handlers.HandleClientImportValidate(app))
		se.Router.POST("/api/clients/import/commit", handlers.HandleClientImportCommit(app))
		se.Router.POST("/api/clients/import/errors", handlers.HandleClientErrorReport())

		// ── Proposals ────────────────────────────────────────────
		se.Router.GET("/api/proposals", handlers.HandleProposalList(app))
		se.Router.POST("/api/proposals", handlers.HandleProposalCreate(app, assembler, counter, cfg.ProposalCodeOffset))
		se.Router.GET("/api/proposals/{id}", handlers.HandleProposalView(app, assembler))
		se.Router.PUT("/api/proposals/{id}", handlers.HandleProposalUpdate(app, assembler))
		se.Router.DELETE("/api/proposals/{id}", handlers.HandleProposalDelete(app))

		// ── Documents ────────────────────────────────────────────
		se.Router.GET("/proposals/{id}/download", handlers.HandleProposalDownload(app, generator))
		se.Router.GET("/proposals/{id}/export/pdf", handlers.HandleProposalExportPDF(app, assembler))
		se.Router.GET("/proposals/{id}/export/excel", handlers.HandleProposalExportExcel(app, assembler))

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/api/proposals")
		})

		return se.Next()
	})

	app.OnTerminate().BindFunc(func(te *core.TerminateEvent) error {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close redis")
			}
		}
		return te.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal().Err(err).Msg("app stopped")
	}
}

type redisCounter struct {
	client  *redis.Client
	counter *services.RedisCodeCounter
}

// newRedisCounter connects to Redis and seeds the sequence from the stored
// proposal count.
func newRedisCounter(ctx context.Context, app *pocketbase.PocketBase, rc config.RedisConfig) (*redisCounter, error) {
	client, err := rc.New(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := app.CountRecords("proposals")
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("count proposals: %w", err)
	}
	counter := services.NewRedisCodeCounter(client, services.DefaultCodeCounterKey)
	if err := counter.Seed(ctx, existing); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &redisCounter{client: client, counter: counter}, nil
}

// templatesCommand manages the .docx templates the renderer reads.
func templatesCommand(store *services.DirTemplateStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage proposal document templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <dir>",
		Short: "Copy tagged .docx templates into the template store under their canonical names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := services.ImportTemplates(args[0], store)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "error  %s: %v\n", r.Source, r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok     %s -> %s\n", r.Source, r.ID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed", failed, len(results))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored templates and flag catalog templates that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := store.List()
			if err != nil {
				return err
			}
			stored := make(map[string]bool, len(ids))
			for _, id := range ids {
				stored[id] = true
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			for _, id := range services.DefaultCatalog().TemplateIDs() {
				if !stored[id] {
					fmt.Fprintf(cmd.OutOrStdout(), "missing %s\n", id)
				}
			}
			return nil
		},
	})

	return cmd
}
