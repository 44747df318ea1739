// Command devtoken mints a bearer token for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"campusreservation/internal/auth"
	"campusreservation/pkg/config"
)

func main() {
	var (
		userID = flag.String("user", "", "user id placed in the sub claim")
		role   = flag.String("role", "student", "student | lecturer | staff | admin (legacy names accepted)")
		ttl    = flag.Duration("ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL)")
	)
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}

	r, err := auth.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.AppEnv == "prod" {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens with APP_ENV=prod")
		os.Exit(2)
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tok, err := auth.IssueToken(auth.Principal{UserID: *userID, Role: r}, cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
