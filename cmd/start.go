package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chefstream/chefstream/internal/process"
	"github.com/chefstream/chefstream/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the relay server",
	Long:  `Start the forwarding relay server in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfg, err := cfgMgr.Load()
	if err != nil {
		return err
	}

	color.Green("Starting %s v%s...", AppName, Version)
	logger.Info("Starting relay",
		"host", cfg.Host,
		"port", cfg.Port,
	)

	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(cfgMgr, logger)

	return srv.Start()
}
