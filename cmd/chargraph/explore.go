package main

import (
	"fmt"
	"os"

	"github.com/dancancer/chargraph"
	"github.com/dancancer/chargraph/core/graph"
	"github.com/dancancer/chargraph/database"
	"github.com/dancancer/chargraph/model"
	"github.com/spf13/cobra"
)

func exploreCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore <run-id|file> <name>",
		Short: "Walk the relation graph around a character",
		Long: `Walk the co-occurrence graph starting at the named character.

The first argument is either the id of a stored run or a text file, which is
recognized first without being stored.

Examples:
  chargraph explore 0b6c8c1e-5f1e-4f6a-9a57-2f0f3c1d1a11 王强 --hops 2
  chargraph explore chapter1.txt 李娜 --min-weight 3 --order dfs`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hops, _ := cmd.Flags().GetInt("hops")
			minWeight, _ := cmd.Flags().GetInt("min-weight")
			order, _ := cmd.Flags().GetString("order")

			traverse := graph.BFS
			switch order {
			case "bfs":
			case "dfs":
				traverse = graph.DFS
			default:
				return fmt.Errorf("unsupported order %q (use 'bfs' or 'dfs')", order)
			}

			var src graph.RelationSource
			if _, statErr := os.Stat(args[0]); statErr == nil {
				result, closeFn, err := recognizeFile(cmd, opts, args[0])
				if err != nil {
					return err
				}
				defer closeFn()
				src = graph.NewResultGraph(result)
			} else {
				rid, err := parseRunID(args[0])
				if err != nil {
					return fmt.Errorf("%s is neither a file nor a run id", args[0])
				}
				recognizer, err := openStore(opts)
				if err != nil {
					return err
				}
				defer recognizer.Close()

				src, err = database.NewRunGraph(rid, recognizer.Characters, recognizer.Relations)
				if err != nil {
					return err
				}
			}

			results, err := traverse(cmd.Context(), src, args[1], hops, minWeight)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTraversal(args[1], results))
			return nil
		},
	}

	cmd.Flags().Int("hops", 1, "Maximum number of relation hops")
	cmd.Flags().Int("min-weight", 1, "Minimum relation weight to follow")
	cmd.Flags().String("order", "bfs", "Traversal order: bfs or dfs")

	return cmd
}

// recognizeFile runs relation extraction only over a text file
func recognizeFile(cmd *cobra.Command, opts *rootOptions, path string) (*model.RecognitionResult, func() error, error) {
	config, err := opts.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	recognizer, err := chargraph.NewRecognizer(config, chargraph.WithLogger(opts.logger()))
	if err != nil {
		return nil, nil, err
	}

	text, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		recognizer.Close()
		return nil, nil, err
	}

	options := model.DefaultRecognitionOptions()
	options.EnableCoreference = false
	options.EnableDialogue = false
	result, err := recognizer.Recognize(text, options)
	if err != nil {
		recognizer.Close()
		return nil, nil, err
	}
	return result, recognizer.Close, nil
}
