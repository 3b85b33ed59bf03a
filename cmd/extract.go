package cmd

import (
	"github.com/spf13/cobra"

	"github.com/btraven00/phishguard/internal/content"
	"github.com/btraven00/phishguard/internal/extractor"
	"github.com/btraven00/phishguard/internal/report"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "List the http(s) URLs found in HTML fragments",
	Long: `Extract http(s) URLs from HTML fragments, saved emails or documents
without contacting the scanner.

Anchor targets come first, then URLs written in visible text. Duplicates are
removed, and script and style content is ignored. Use - to read stdin.

Examples:
  phishguard extract message.html
  phishguard extract --output json message.eml notice.pdf
  pbpaste | phishguard extract -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	printer, err := report.New(cmd.OutOrStdout(), output)
	if err != nil {
		return err
	}

	loader := content.NewLoader()

	var all []string

	for _, path := range args {
		if path == content.Stdin {
			urls, err := extractor.ExtractFromReader(cmd.InOrStdin())
			if err != nil {
				return err
			}

			all = append(all, urls...)

			continue
		}

		fragment, err := loader.Load(path)
		if err != nil {
			return err
		}

		all = append(all, extractor.ExtractURLs(fragment)...)
	}

	if len(args) > 1 {
		all = uniqueURLs(all)
	}

	return printer.URLs(all)
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))

	for _, u := range urls {
		if seen[u] {
			continue
		}

		seen[u] = true
		out = append(out, u)
	}

	return out
}
