package cli

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shop_catalog/pkg/config"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string

	cfg    config.Config
	logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Product catalog backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envErr := godotenv.Load(opts.EnvFile)

			opts.cfg = config.Load()
			opts.logger = logging.NewWithWriter(cmd.ErrOrStderr(), opts.cfg.LogLevel).With("service", opts.cfg.ServiceName)
			slog.SetDefault(opts.logger)

			if envErr != nil {
				opts.logger.Debug("env_file_not_loaded", "path", opts.EnvFile, "error", envErr)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
