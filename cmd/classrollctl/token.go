package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/classroll/internal/auth"
	"github.com/saturnino-fabrica-de-software/classroll/internal/config"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for local testing",
	Long: `Signs an access token with JWT_SECRET, valid for ACCESS_TOKEN_TTL.
The user does not need to exist for the token to validate.

Examples:
  classrollctl token --user 550e8400-e29b-41d4-a716-446655440000 --role teacher`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user", "", "User id placed in the sub claim")
	tokenCmd.Flags().String("role", "student", "User type: teacher or student")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	role := domain.UserType(mustGetString(cmd, "role"))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q (use: teacher, student)", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL).
		GenerateToken(mustGetString(cmd, "user"), role)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
