package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP admin API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		svc, err := a.service()
		if err != nil {
			return err
		}

		if !a.cfg.Log.Development {
			gin.SetMode(gin.ReleaseMode)
		}
		signer := auth.NewSigner(a.cfg.Auth.Secret, a.cfg.Auth.TokenTTL, a.cfg.Auth.Issuer)
		router := server.NewRouter(svc, signer, a.log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Run(ctx, a.cfg.HTTP.Addr, router, a.log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
