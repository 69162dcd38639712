// Command wbg-run loads a wasm-bindgen guest into the host runtime and
// drives its event loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/config"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wbg-run",
	Short: "Run wasm-bindgen guests outside the browser",
	Long: `wbg-run hosts a wasm-bindgen guest module: it links the wbg import
namespace (DOM, WebGL, Web Audio, IndexedDB, fetch, input), runs
__wbindgen_start and drives the event loop until the guest goes idle.

Examples:
  wbg-run run game.wasm                 # run headless until idle
  wbg-run run game.wasm -i              # run with the inspector
  wbg-run run game.wasm --watch         # restart when the file changes
  wbg-run exports game.wasm             # list exports and unresolved imports
  wbg-run call lib.wasm add --wit "func(a: s32, b: s32) -> s32" 1 2
  wbg-run config                        # print the effective configuration`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by the global flags.
// Command-specific flags are applied through bind.
func loadConfig(bind func(v *viper.Viper)) (*config.Config, error) {
	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		v.Set("log.level", logLevel)
	}
	if bind != nil {
		bind(v)
	}
	return config.FromViper(v)
}

func setup(bind func(v *viper.Viper)) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(bind)
	if err != nil {
		return nil, nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
