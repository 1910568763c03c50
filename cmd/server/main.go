package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/syftbox/internal/server"
	"github.com/openmined/syftbox/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:     "syftbox-server",
	Short:   "SyftBox cache server",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := &server.Config{}
		if err := viper.Unmarshal(config); err != nil {
			return err
		}

		cmd.SilenceUsage = true

		s, err := server.New(config)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return s.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().StringP("datadir", "d", "./data", "Server data directory")
	rootCmd.Flags().String("cert", "", "Path to the TLS certificate file")
	rootCmd.Flags().String("key", "", "Path to the TLS key file")

	viper.BindPFlag("http.addr", rootCmd.Flags().Lookup("bind"))
	viper.BindPFlag("data_dir", rootCmd.Flags().Lookup("datadir"))
	viper.BindPFlag("http.cert_file", rootCmd.Flags().Lookup("cert"))
	viper.BindPFlag("http.key_file", rootCmd.Flags().Lookup("key"))

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token_issuer", "https://syftbox.openmined.org")
	viper.SetDefault("auth.email_token_expiry", 15*time.Minute)
	viper.SetDefault("auth.access_token_expiry", 0)

	viper.SetEnvPrefix("SYFTBOX")
	viper.AutomaticEnv()
}

func main() {
	// local overrides for secrets like SENDGRID_API_KEY and token secrets
	godotenv.Load()

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
