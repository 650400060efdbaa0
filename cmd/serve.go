package cmd

import (
	"fmt"

	"github.com/abhisek/vidtutor/internal/analysis"
	"github.com/abhisek/vidtutor/internal/config"
	"github.com/abhisek/vidtutor/internal/server"
	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutor HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.log.Sync()

		if cmd.Flags().Changed("addr") {
			e.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("session-mode") {
			e.cfg.Server.SessionMode, _ = cmd.Flags().GetString("session-mode")
			if err := e.cfg.Validate(); err != nil {
				return err
			}
		}
		if e.cfg.Log.Mode == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx := cmd.Context()
		st, err := e.openStore()
		if err != nil {
			if e.cfg.Server.SessionMode == config.SessionModeServer {
				return err
			}
			e.log.Warn("session store unavailable, serving without persistence", "error", err)
		} else {
			defer st.Close()
		}

		provider, err := e.provider(ctx, st)
		if err != nil {
			return err
		}

		deps := server.Deps{
			Tutor:    tutor.NewService(provider, tutor.WithConfig(e.cfg.Tutor), tutor.WithLogger(e.log)),
			Analyzer: analysis.NewAnalyzer(provider, e.log),
			Log:      e.log,
		}
		if st != nil {
			deps.Recorder = session.NewRecorder(st.SessionRepo(), st.EventRepo(), e.log)
		}

		srv, err := server.New(e.cfg.Server, deps)
		if err != nil {
			return err
		}
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	serveCmd.Flags().String("session-mode", "", "Who owns session state: client or server")
}
