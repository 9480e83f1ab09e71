package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/chalk/internal/fetch"
)

var fetchNoCache bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <locator>",
	Short: "Fetch a document and print its text",
	Long: `Fetch a document from any configured storage scheme (file, http(s),
s3, sftp), convert it to text and print it. Results are cached by locator
digest; pass --no-cache to force a fresh fetch.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchNoCache, "no-cache", false, "bypass the document cache")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	locator := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	blobCache, _, err := newCache(cfg, reg, logger)
	if err != nil {
		return err
	}

	fetcher := fetch.New(reg, fetch.TextConverter{}, blobCache, cfg.Converter, fetch.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval.Std(),
	}, logger)

	text, err := fetcher.Fetch(cmd.Context(), locator, !fetchNoCache)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
