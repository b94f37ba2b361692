package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/config"
)

func runToken(_ context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id (UUID); a random one is generated when empty")
	email := fs.String("email", "dev@example.com", "email claim")
	name := fs.String("name", "", "display name claim")
	ttl := fs.Duration("ttl", 0, "token lifetime; defaults to AUTH_TOKEN_TTL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if env.cfg.Env == config.EnvProduction {
		return fmt.Errorf("token issuing is disabled in production")
	}

	authCfg := service.AuthConfig{
		TokenSecret: env.cfg.Auth.TokenSecret,
		Issuer:      env.cfg.Auth.Issuer,
		Audience:    env.cfg.Auth.Audience,
		TokenTTL:    env.cfg.Auth.TokenTTL,
	}
	if *ttl > 0 {
		authCfg.TokenTTL = *ttl
	}

	token, expiresAt, err := service.NewAuthService(authCfg, env.logger).IssueToken(models.Principal{
		UserID:      *userID,
		Email:       *email,
		DisplayName: *name,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, token)
	color.New(color.Faint).Fprintf(env.out, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
