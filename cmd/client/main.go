package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/syftbox/internal/client"
	"github.com/openmined/syftbox/internal/client/config"
	"github.com/openmined/syftbox/internal/syftsdk"
	"github.com/openmined/syftbox/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var home, _ = os.UserHomeDir()

var rootCmd = &cobra.Command{
	Use:     "syftbox",
	Short:   "SyftBox client",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromViper()
		if err := cfg.Validate(); err != nil {
			return err
		}

		cmd.SilenceUsage = true

		c, err := client.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return c.Start(cmd.Context())
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the SyftBox server",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromViper()
		if err := cfg.Validate(); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		resp, err := syftsdk.RequestEmailToken(cmd.Context(), cfg.ServerURL, cfg.Email)
		if err != nil {
			return fmt.Errorf("request email token: %w", err)
		}

		emailToken := resp.EmailToken
		if emailToken == "" {
			fmt.Printf("A login token has been sent to %s.\n", cfg.Email)
			fmt.Print("Paste the token here: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			emailToken = strings.TrimSpace(line)
		}

		tokens, err := syftsdk.ValidateEmailToken(cmd.Context(), cfg.ServerURL, emailToken)
		if err != nil {
			return fmt.Errorf("validate email token: %w", err)
		}

		cfg.AccessToken = tokens.AccessToken
		cfg.RefreshToken = tokens.RefreshToken

		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			configPath = config.DefaultConfigPath
		}
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Printf("Logged in as %s. Config saved to %s\n", cfg.Email, configPath)
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("email", "e", "", "Email for the SyftBox datasite")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "SyftBox data directory")
	rootCmd.PersistentFlags().StringP("server", "s", config.DefaultServerURL, "SyftBox server URL")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "SyftBox config file")
	rootCmd.AddCommand(loginCmd)
}

func main() {
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(stdoutHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".syftbox"))
		viper.AddConfigPath(filepath.Join(home, ".config/syftbox"))
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("email", cmd.Flags().Lookup("email"))
	viper.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))

	viper.SetEnvPrefix("SYFTBOX")
	viper.AutomaticEnv()

	return nil
}

func configFromViper() *config.Config {
	return &config.Config{
		Path:         viper.ConfigFileUsed(),
		Email:        viper.GetString("email"),
		DataDir:      viper.GetString("data_dir"),
		ServerURL:    viper.GetString("server_url"),
		AccessToken:  viper.GetString("access_token"),
		RefreshToken: viper.GetString("refresh_token"),
	}
}
