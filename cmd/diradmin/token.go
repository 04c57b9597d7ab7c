package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/config"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

var (
	tokenUser  string
	tokenAdmin bool
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		signer := auth.NewSigner(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
		token, err := signer.GenerateToken(models.NormalizeUserID(tokenUser), tokenAdmin)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "user id the token is issued to")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "grant administrative access")
	tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
