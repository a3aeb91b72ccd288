package main

import (
	"fmt"

	"github.com/dancancer/chargraph/model"
	"github.com/spf13/cobra"
)

func searchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored characters by description",
		Long: `Embed the query with the configured embedding model and search the
context profiles of all stored characters. The hybrid and multi_hop
strategies also return characters related to the hits.

Examples:
  chargraph search "客栈里的年轻剑客"
  chargraph search "师父" --strategy vector --top-k 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := model.DefaultQueryConfig()
			config.Strategy, _ = cmd.Flags().GetString("strategy")
			config.TopK, _ = cmd.Flags().GetInt("top-k")
			config.SimilarityThreshold, _ = cmd.Flags().GetFloat64("threshold")
			config.MaxHops, _ = cmd.Flags().GetInt("hops")
			config.MinWeight, _ = cmd.Flags().GetInt("min-weight")
			if err := config.Validate(); err != nil {
				return err
			}

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()
			recognizer.UseDefaultPipeline()

			results, err := recognizer.SearchCharacters(cmd.Context(), args[0], config)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSearch(args[0], results))
			return nil
		},
	}

	defaults := model.DefaultQueryConfig()
	cmd.Flags().String("strategy", defaults.Strategy, "Retrieval strategy: vector, multi_hop or hybrid")
	cmd.Flags().IntP("top-k", "k", defaults.TopK, "Number of profile hits")
	cmd.Flags().Float64("threshold", defaults.SimilarityThreshold, "Minimum cosine similarity")
	cmd.Flags().Int("hops", defaults.MaxHops, "Relation hops around each hit")
	cmd.Flags().Int("min-weight", defaults.MinWeight, "Minimum relation weight to follow")

	return cmd
}
