package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/indexer"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

var indexFlags struct {
	force     bool
	dryRun    bool
	batchSize int
}

func init() {
	indexCmd.Flags().BoolVar(&indexFlags.force, "force", false, "re-embed every lecture regardless of the manifest")
	indexCmd.Flags().BoolVar(&indexFlags.dryRun, "dry-run", false, "report what would change without embedding")
	indexCmd.Flags().IntVar(&indexFlags.batchSize, "batch-size", 0, "documents per embedding request (default from config)")
	rootCmd.AddCommand(indexCmd)
}

// indexCmd populates the vector index from the catalog
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the course catalog into the vector index",
	Long: `Read every lecture from Airtable, embed the changed ones and upsert
them into the configured vector index. A local manifest remembers what was
indexed, so reruns only embed lectures that changed.

Examples:
  sitin index
  sitin index --dry-run
  sitin index --force --batch-size 32`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, services.Needs{Catalog: true, Retrieval: true})
	if err != nil {
		return err
	}
	defer s.Close()

	store := s.reg.Catalog()
	if err := store.Refresh(ctx); err != nil {
		return fmt.Errorf("loading lectures: %w", err)
	}

	manifest, err := indexer.OpenManifest(s.cfg.Index.ManifestPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := manifest.Close(); err != nil {
			s.logger.Warn(ctx, "closing manifest", zap.Error(err))
		}
	}()

	batch := indexFlags.batchSize
	if batch <= 0 {
		batch = s.cfg.Index.BatchSize
	}
	ix := indexer.New(s.reg.Embedder(), s.reg.Index(), manifest, s.logger)
	stats, err := ix.Run(ctx, store.Snapshot(), indexer.Options{
		BatchSize: batch,
		Force:     indexFlags.force,
		DryRun:    indexFlags.dryRun,
	})
	printStats(cmd.OutOrStdout(), stats, indexFlags.dryRun)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	return nil
}

func printStats(w io.Writer, st indexer.Stats, dryRun bool) {
	verb := "Upserted"
	if dryRun {
		verb = "Would upsert"
	}
	fmt.Fprintf(w, "Documents: %d\n", st.Documents)
	fmt.Fprintf(w, "%s: %d\n", verb, st.Upserted)
	fmt.Fprintf(w, "Unchanged: %d\n", st.Unchanged)
	if st.Skipped > 0 {
		fmt.Fprintf(w, "Skipped (unparseable times): %d\n", st.Skipped)
	}
}
