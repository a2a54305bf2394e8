package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ironsheep/phase-imaging/internal/config"
	"github.com/ironsheep/phase-imaging/internal/logging"
)

// app carries what every subcommand needs once flags have been parsed.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:          "phase-server",
		Short:        "Arterial/venous phase image processing service",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("phase-server {{.Version}}\n  Build time: %s\n  Git commit: %s\n", BuildTime, GitCommit))

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "json", "log encoding: json or console")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(newServeCmd(a), newProcessCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading and logger setup.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "phase-server %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
