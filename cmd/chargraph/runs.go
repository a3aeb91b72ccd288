package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dancancer/chargraph"
	"github.com/dancancer/chargraph/database"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// openStore builds a recognizer connected to the database configured by the environment
func openStore(opts *rootOptions) (*chargraph.Recognizer, error) {
	config, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	recognizer, err := chargraph.NewRecognizer(config, chargraph.WithLogger(opts.logger()))
	if err != nil {
		return nil, err
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	if err := recognizer.ConnectDatabase(dbConfig); err != nil {
		return nil, err
	}
	return recognizer, nil
}

func parseRunID(arg string) (uuid.UUID, error) {
	rid, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", arg, err)
	}
	return rid, nil
}

func runsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored recognition runs",
		Long: `Inspect the recognition runs stored with 'recognize --store'.

The database is configured by the CHARGRAPH_DB_* environment variables or a
.env file in the working directory.`,
	}

	cmd.AddCommand(runsListCmd(opts))
	cmd.AddCommand(runsShowCmd(opts))
	cmd.AddCommand(runsDeleteCmd(opts))
	cmd.AddCommand(runsSimilarCmd(opts))
	cmd.AddCommand(runsReindexCmd(opts))

	return cmd
}

func runsListCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()

			var runs []*model.Run
			if search != "" {
				runs, err = recognizer.Runs.SelectRunsBySearch(search, limit)
			} else {
				runs, err = recognizer.Runs.SelectAllRuns(nil, limit)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().StringP("search", "s", "", "Only list runs whose title contains this term")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs")

	return cmd
}

func runsShowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the characters and relations of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q (use 'table' or 'json')", format)
			}

			rid, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()

			result, err := recognizer.LoadResult(rid)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				encoder.SetEscapeHTML(false)
				return encoder.Encode(result)
			}
			fmt.Fprintln(out, renderResult(result))
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format: table or json")

	return cmd
}

func runsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run with its characters and relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rid, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()

			if err := recognizer.Runs.DeleteRun(rid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", rid)
			return nil
		},
	}
}

func runsSimilarCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <run-id> <name>",
		Short: "Find characters of other runs with a similar context profile",
		Long: `Find characters of other stored runs whose context profile is close to the
profile of the named character. Profiles are stored by 'recognize --model --store'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			rid, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()

			records, err := recognizer.SimilarCharacters(rid, args[1], limit, threshold)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSimilar(args[1], records))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of characters")
	cmd.Flags().Float64("threshold", 0.8, "Minimum cosine similarity")

	return cmd
}

func runsReindexCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex <hnsw|ivfflat>",
		Short: "Rebuild the character profile index",
		Long: `Rebuild the index used by 'runs similar' and 'search'. IVFFlat derives its
lists from the stored profiles, so rebuild it after storing many runs.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{database.IndexHNSW, database.IndexIVFFlat},
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]interface{}{}
			for _, name := range []string{"m", "ef-construction", "lists"} {
				if cmd.Flags().Changed(name) {
					value, _ := cmd.Flags().GetInt(name)
					params[strings.ReplaceAll(name, "-", "_")] = value
				}
			}

			recognizer, err := openStore(opts)
			if err != nil {
				return err
			}
			defer recognizer.Close()

			if err := recognizer.ChangeIndexType(cmd.Context(), args[0], params); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %s index\n", args[0])
			return nil
		},
	}

	cmd.Flags().Int("m", 16, "HNSW connections per layer")
	cmd.Flags().Int("ef-construction", 64, "HNSW candidate list size while building")
	cmd.Flags().Int("lists", 100, "IVFFlat list count")

	return cmd
}
