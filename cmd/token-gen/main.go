package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"docucheck.backend/internal/config"
	"docucheck.backend/pkg/jwt"
)

var (
	printfFn   = fmt.Printf
	fatalfFn   = log.Fatalf
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
)

type options struct {
	userID string
	email  string
	role   string
	expiry time.Duration
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("token-gen", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.userID, "user", "", "operator user id (random when empty)")
	fs.StringVar(&opts.email, "email", "ops@docucheck.local", "operator email")
	fs.StringVar(&opts.role, "role", jwt.RoleAdmin, "token role: admin or user")
	fs.DurationVar(&opts.expiry, "expiry", 0, "token lifetime (JWT_EXPIRY when zero)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.role != jwt.RoleAdmin && opts.role != jwt.RoleUser {
		return options{}, fmt.Errorf("invalid role: %s (allowed: admin, user)", opts.role)
	}
	return opts, nil
}

// issueToken signs a token with the server's JWT settings
func issueToken(cfg *config.Config, opts options) (string, uuid.UUID, error) {
	userID := uuid.New()
	if opts.userID != "" {
		parsed, err := uuid.Parse(opts.userID)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("invalid user id: %w", err)
		}
		userID = parsed
	}
	expiry := cfg.JWT.Expiry
	if opts.expiry > 0 {
		expiry = opts.expiry
	}
	token, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, expiry).Issue(userID, opts.email, opts.role)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, userID, nil
}

func main() {
	_ = loadDotenv()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fatalfFn("%v", err)
		return
	}

	token, userID, err := issueToken(loadCfg(), opts)
	if err != nil {
		fatalfFn("Failed to issue token: %v", err)
		return
	}

	printfFn("User: %s (%s)\n", userID, opts.role)
	printfFn("Bearer %s\n", token)
}
