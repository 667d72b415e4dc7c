package commands

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/config"
)

// EnvPrefix prefixes environment overrides of global flags, e.g.
// TALLY_LOG_LEVEL.
const EnvPrefix = "TALLY"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Reconcile two transaction exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initEnv(v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", config.FileName, "project config file")
	flags.String("log-level", "", "log level (debug, info, warn, error); overrides config")
	flags.String("log-format", "", "log format (auto, console, json); overrides config")

	for key, flag := range map[string]string{
		"config":     "config",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding %s flag: %v", flag, err))
		}
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReconcileCommand(v))

	return rootCmd
}

// initEnv loads .env files, then lets TALLY_* variables override flags
// left at their defaults. Variables already set win over .env contents.
func initEnv(v *viper.Viper) {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}
