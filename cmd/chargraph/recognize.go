package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dancancer/chargraph"
	"github.com/dancancer/chargraph/helper"
	"github.com/dancancer/chargraph/model"
	"github.com/spf13/cobra"
)

func recognizeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recognize <file>",
		Short: "Extract characters and relations from a text file",
		Long: `Extract the characters of a UTF-8 text file and print them with their
aliases, gender hints, dialogue counts and co-occurrence relations.

Without --model, names are found by surname and affix rules and clusters are
merged by string similarity. With --model, the configured hugot NER and
embedding models are downloaded on first use.

Use - as file to read from stdin.

Examples:
  chargraph recognize chapter1.txt
  chargraph recognize chapter1.txt --format json --min-mentions 3
  chargraph recognize chapter1.txt --model --store --title "第一章"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			useModel, _ := cmd.Flags().GetBool("model")
			store, _ := cmd.Flags().GetBool("store")
			title, _ := cmd.Flags().GetString("title")
			noCoref, _ := cmd.Flags().GetBool("no-coref")
			noDialogue, _ := cmd.Flags().GetBool("no-dialogue")
			noRelations, _ := cmd.Flags().GetBool("no-relations")
			profiles, _ := cmd.Flags().GetBool("profiles")
			minMentions, _ := cmd.Flags().GetInt("min-mentions")
			maxCharacters, _ := cmd.Flags().GetInt("max-characters")

			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q (use 'table' or 'json')", format)
			}

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			recognizer, err := chargraph.NewRecognizer(config, chargraph.WithLogger(opts.logger()))
			if err != nil {
				return err
			}
			defer recognizer.Close()

			if useModel {
				recognizer.UseDefaultPipeline()
			}

			recognitionOptions := model.RecognitionOptions{
				EnableCoreference: !noCoref,
				EnableDialogue:    !noDialogue,
				EnableRelations:   !noRelations,
				EmbedProfiles:     profiles || (store && useModel),
				MinMentions:       minMentions,
				MaxCharacters:     maxCharacters,
			}
			result, err := recognizer.Recognize(text, recognitionOptions)
			if err != nil {
				return err
			}

			if store {
				dbConfig, err := helper.NewDatabaseConfiguration()
				if err != nil {
					return err
				}
				if err := recognizer.ConnectDatabase(dbConfig); err != nil {
					return err
				}
				run, err := recognizer.Store(title, result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Stored run %s\n", run.RID)
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
	cmd.Flags().Bool("model", false, "Use the hugot NER and embedding models")
	cmd.Flags().Bool("store", false, "Store the result in PostgreSQL (DATABASE_* environment)")
	cmd.Flags().String("title", "", "Run title when storing, defaults to the file name")
	cmd.Flags().Bool("no-coref", false, "Skip pronoun resolution")
	cmd.Flags().Bool("no-dialogue", false, "Skip dialogue attribution")
	cmd.Flags().Bool("no-relations", false, "Skip relation extraction")
	cmd.Flags().Bool("profiles", false, "Embed a context profile per character (needs --model)")
	cmd.Flags().Int("min-mentions", 0, "Minimum mentions per character, 0 uses the configuration")
	cmd.Flags().Int("max-characters", 0, "Maximum characters to keep, 0 uses the configuration")

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
