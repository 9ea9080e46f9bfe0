package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/termbridge/termbridge/internal/domain/mapping"
	"github.com/termbridge/termbridge/internal/domain/namaste"
	"github.com/termbridge/termbridge/internal/platform/db"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "termbridge-server",
		Short:        "NAMASTE to ICD-11 terminology mapping server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(mapCmd())
	root.AddCommand(reverseCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(catalogCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the mapping API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// mappingFlags registers the per-call tuning flags shared by the one-shot
// mapping commands.
func mappingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-results", 0, "Maximum mappings per code (0 uses MAPPING_MAX_RESULTS)")
	cmd.Flags().Float64("threshold", -1, "Minimum confidence in [0,1] (negative uses MAPPING_CONFIDENCE_THRESHOLD)")
}

func optionsFromFlags(cmd *cobra.Command) (mapping.Options, error) {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	opts := mapping.Options{MaxResults: maxResults}
	if maxResults < 0 {
		return opts, fmt.Errorf("--max-results must not be negative")
	}
	if threshold >= 0 {
		if threshold > 1 {
			return opts, fmt.Errorf("--threshold must be between 0 and 1")
		}
		opts.ConfidenceThreshold = &threshold
	}
	return opts, nil
}

// withApp loads config, wires the components and runs fn against them.
func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <namaste-code>",
		Short: "Map one NAMASTE code to ICD-11 and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				source, mappings, err := a.mapper.MapCode(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"source":   source,
					"mappings": mappings,
					"total":    len(mappings),
				})
			})
		},
	}
	mappingFlags(cmd)
	return cmd
}

func reverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse <icd11-code>",
		Short: "Find NAMASTE concepts for one ICD-11 code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				target, mappings, err := a.mapper.MapTargetToSource(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"target":   target,
					"mappings": mappings,
					"total":    len(mappings),
				})
			})
		},
	}
	mappingFlags(cmd)
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <namaste-code>...",
		Short: "Map several NAMASTE codes, paced by BATCH_PACING",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if len(args) > a.cfg.BatchMaxItems {
					return fmt.Errorf("at most %d codes per batch, got %d", a.cfg.BatchMaxItems, len(args))
				}
				return printJSON(cmd.OutOrStdout(), a.mapper.MapBatch(ctx, args, opts))
			})
		},
	}
	mappingFlags(cmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run catalog database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, nil).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, nil).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the NAMASTE source catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML or JSON catalog file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concepts, err := namaste.LoadCatalogFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := namaste.NewService(namaste.NewRepoPG(pool), cliLogger(cfg))
			var n int
			err = db.InTx(ctx, pool, func(ctx context.Context) error {
				n, err = svc.Import(ctx, concepts)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d concept(s) across %d categories.\n", n, len(namaste.Categories(concepts)))
			return nil
		},
	}
	cmd.AddCommand(importCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a catalog file and report its contents without importing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concepts, err := namaste.LoadCatalogFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d concept(s), categories: %v\n", len(concepts), namaste.Categories(concepts))
			return nil
		},
	})
	return cmd
}
