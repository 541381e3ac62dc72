package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	kgCategory     string
	kgMinFrequency int
	kgLimit        int
	kgDocument     string
	kgLabels       []string
	kgJSON         bool
)

var kgCmd = &cobra.Command{
	Use:   "kg",
	Short: "Explore the entity graph",
	Long:  `Commands for the entity co-occurrence graph built during ingestion.`,
}

var kgEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List entities by frequency",
	Args:  cobra.NoArgs,
	RunE:  runKGEntities,
}

var kgEntityCmd = &cobra.Command{
	Use:   "entity <name>",
	Short: "Show an entity, its chunks and related entities",
	Args:  cobra.ExactArgs(1),
	RunE:  runKGEntity,
}

var kgStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	Args:  cobra.NoArgs,
	RunE:  runKGStats,
}

var kgReprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Re-run entity extraction",
	Long: `Deletes and re-extracts entities for one document (--document) or for
every document. Extra --labels are added to the configured label set.`,
	Args: cobra.NoArgs,
	RunE: runKGReprocess,
}

func init() {
	kgEntitiesCmd.Flags().StringVar(&kgCategory, "category", "", "only this category")
	kgEntitiesCmd.Flags().IntVar(&kgMinFrequency, "min-frequency", 0, "minimum mention count")
	kgEntitiesCmd.Flags().IntVarP(&kgLimit, "limit", "n", 0, "maximum number of entities (default 50)")
	kgEntitiesCmd.Flags().BoolVar(&kgJSON, "json", false, "output as JSON")

	kgEntityCmd.Flags().StringVar(&kgCategory, "category", "", "entity category")

	kgReprocessCmd.Flags().StringVar(&kgDocument, "document", "", "only this document id")
	kgReprocessCmd.Flags().StringSliceVar(&kgLabels, "labels", nil, "extra entity labels")

	kgCmd.AddCommand(kgEntitiesCmd, kgEntityCmd, kgStatsCmd, kgReprocessCmd)
	rootCmd.AddCommand(kgCmd)
}

func runKGEntities(cmd *cobra.Command, _ []string) error {
	nodes, err := app.Graph.ListEntities(cmd.Context(), domain.EntityQuery{
		Category:     kgCategory,
		MinFrequency: kgMinFrequency,
		Limit:        kgLimit,
	})
	if err != nil {
		return err
	}
	if kgJSON {
		return printJSON(cmd, nodes)
	}
	if len(nodes) == 0 {
		cmd.Println("No entities found.")
		return nil
	}
	for _, n := range nodes {
		cmd.Printf("  %-30s %-15s %d\n", displayName(n), n.Category, n.Frequency)
	}
	return nil
}

func runKGEntity(cmd *cobra.Command, args []string) error {
	detail, err := app.Graph.EntityDetail(cmd.Context(), args[0], kgCategory)
	if err != nil {
		return err
	}

	cmd.Printf("%s (%s), mentioned %d times\n", displayName(detail.Entity), detail.Entity.Category, detail.Entity.Frequency)
	cmd.Printf("\nChunks (%d):\n", len(detail.ChunkIDs))
	for _, id := range detail.ChunkIDs {
		cmd.Printf("  %s\n", id)
	}
	if len(detail.RelatedEntities) > 0 {
		cmd.Println("\nRelated:")
		for _, r := range detail.RelatedEntities {
			cmd.Printf("  %-30s %-15s %d\n", displayName(r.Entity), r.Entity.Category, r.CoOccurrenceCount)
		}
	}
	return nil
}

func runKGStats(cmd *cobra.Command, _ []string) error {
	stats, err := app.Graph.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Entities: %d\n", stats.TotalEntities)
	cmd.Printf("Edges:    %d\n", stats.TotalEdges)
	if len(stats.ByCategory) > 0 {
		cmd.Println("\nBy category:")
		cats := make([]string, 0, len(stats.ByCategory))
		for c := range stats.ByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			cmd.Printf("  %-15s %d\n", c, stats.ByCategory[c])
		}
	}
	if len(stats.TopEntities) > 0 {
		cmd.Println("\nTop entities:")
		for _, n := range stats.TopEntities {
			cmd.Printf("  %-30s %-15s %d\n", displayName(n), n.Category, n.Frequency)
		}
	}
	return nil
}

func runKGReprocess(cmd *cobra.Command, _ []string) error {
	res, err := app.Graph.Reprocess(cmd.Context(), kgDocument, kgLabels)
	if err != nil {
		return err
	}
	cmd.Printf("Reprocessed %d documents, %d entities\n", res.DocumentsProcessed, res.TotalEntities)
	return nil
}

func displayName(n domain.EntityNode) string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Name
}
