package main

import (
	"fmt"

	"github.com/dancancer/chargraph/core/alias"
	"github.com/dancancer/chargraph/model"
	"github.com/spf13/cobra"
)

func normalizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <name>...",
		Short: "Print the core key of each name",
		Long: `Print the core key the cluster builder groups a name under,
after stripping punctuation, a leading prefix, a trailing honorific and a
trailing diminutive.

Example:
  chargraph normalize 老张 张叔 芙儿`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}

			keys, err := normalizeNames(config, args)
			if err != nil {
				return err
			}
			for i, name := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, keys[i])
			}
			return nil
		},
	}
}

func normalizeNames(config model.Config, names []string) ([]string, error) {
	normalizer, err := alias.NewNormalizer(config)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = normalizer.Normalize(name)
	}
	return keys, nil
}
