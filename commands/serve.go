package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/taskquest/config"
	"github.com/cppla/taskquest/routes"
	"github.com/cppla/taskquest/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.badges.EnsureSeeded(cmd.Context()); err != nil {
		return err
	}

	r := routes.SetupRouter(a.tracker, a.db)
	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(":"+cfg.AppPort, r, time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
}
