// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/award-matcher/internal/openalex"
	"github.com/pdiddy/award-matcher/internal/secrets"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <work-id|doi|url>",
	Short: "Fetch one work and print its extracted metadata",
	Long: `Lookup resolves an OpenAlex work id, a DOI or a URL containing a DOI and
prints the metadata fields a match would add to a record. Target funders
and an optional award id are checked the same way as during a run.`,
	Example: `  award-matcher lookup W2741809807
  award-matcher lookup https://doi.org/10.1038/nature12373 --award-id NSF-1234567`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if cfg.API.Mailto == "" {
			return eris.Errorf("an OpenAlex email is required: set api.mailto, %s or .secrets/%s", secrets.EnvMailto, secrets.KeyOpenAlexEmail)
		}
		s, err := openSession(cmd, cfg, false)
		if err != nil {
			return err
		}
		defer s.Close()

		work, err := s.client.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if work == nil {
			return eris.Errorf("no work found for %q", args[0])
		}

		awardID, _ := cmd.Flags().GetString("award-id")
		meta := openalex.ExtractMetadata(*work, cfg.API.FunderIDs(), awardID)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(meta), "encoding metadata")
		}
		data, err := yaml.Marshal(map[string]any(meta))
		if err != nil {
			return eris.Wrap(err, "marshaling metadata")
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	lookupCmd.Flags().String("award-id", "", "award id to check against the work's grants")
	lookupCmd.Flags().Bool("json", false, "print JSON instead of YAML")

	rootCmd.AddCommand(lookupCmd)
}
