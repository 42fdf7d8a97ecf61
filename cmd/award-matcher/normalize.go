// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/award-matcher/internal/textnorm"
)

// titleForms are the derived strings title matching works with.
type titleForms struct {
	Original   string `yaml:"original"`
	Stripped   string `yaml:"stripped_title"`
	Date       string `yaml:"extracted_date,omitempty"`
	DateFormat string `yaml:"date_format,omitempty"`
	MainTitle  string `yaml:"main_title"`
	Sanitized  string `yaml:"sanitized"`
	Cleaned    string `yaml:"cleaned"`
	Aggressive string `yaml:"cleaned_aggressive"`
	Normalized string `yaml:"normalized"`
}

func deriveTitleForms(norm *textnorm.Normalizer, title string) titleForms {
	stripped, date, format := textnorm.ExtractDateFromTitle(title)
	return titleForms{
		Original:   title,
		Stripped:   stripped,
		Date:       date,
		DateFormat: string(format),
		MainTitle:  textnorm.ExtractMainTitle(stripped),
		Sanitized:  textnorm.SanitizeForSearch(stripped),
		Cleaned:    norm.CleanTitleForSearch(title, false),
		Aggressive: norm.CleanTitleForSearch(title, true),
		Normalized: norm.Normalize(title, false),
	}
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <title>...",
	Short: "Show how titles are cleaned before searching",
	Long: `Normalize prints the date extracted from each title, its main title and
the cleaned strings sent to title search. Use it to check why a title does
or does not match.`,
	Example: `  award-matcher normalize "9 July 2019, Results of the Survey: Part 1"
  award-matcher normalize --stopwords words.txt --yaml "The Title"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stop := textnorm.EnglishStopwords()
		if path, _ := cmd.Flags().GetString("stopwords"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "opening %s", path)
			}
			stop, err = textnorm.ReadStopwords(f)
			f.Close()
			if err != nil {
				return err
			}
		}
		norm := textnorm.New(stop)

		forms := make([]titleForms, 0, len(args))
		for _, a := range args {
			forms = append(forms, deriveTitleForms(norm, a))
		}

		out := cmd.OutOrStdout()
		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			data, err := yaml.Marshal(forms)
			if err != nil {
				return eris.Wrap(err, "marshaling titles")
			}
			fmt.Fprint(out, string(data))
			return nil
		}
		for i, f := range forms {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Title:              %s\n", f.Original)
			if f.Date != "" {
				fmt.Fprintf(out, "Extracted date:     %s (%s)\n", f.Date, f.DateFormat)
				fmt.Fprintf(out, "Without date:       %s\n", f.Stripped)
			}
			fmt.Fprintf(out, "Main title:         %s\n", f.MainTitle)
			fmt.Fprintf(out, "Sanitized:          %s\n", f.Sanitized)
			fmt.Fprintf(out, "Cleaned:            %s\n", f.Cleaned)
			fmt.Fprintf(out, "Cleaned aggressive: %s\n", f.Aggressive)
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().Bool("yaml", false, "print YAML")
	normalizeCmd.Flags().String("stopwords", "", "file of stopwords, one per line, replacing the English list")

	rootCmd.AddCommand(normalizeCmd)
}
