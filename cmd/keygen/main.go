// Command keygen prints a fresh custody master key, or a service token signed
// with the configured JWT secret.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"custodial-wallet/config"
	"custodial-wallet/internal/service"
)

func main() {
	token := flag.Bool("token", false, "issue a service token instead of a master key")
	subject := flag.String("subject", "operator", "token subject")
	flag.Parse()

	if !*token {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			fail(err)
		}
		fmt.Println(hex.EncodeToString(key))
		return
	}

	cfg, err := config.Load("")
	if err != nil {
		fail(err)
	}
	if cfg.JWT.Secret == "" {
		fail(fmt.Errorf("jwt.secret is not set"))
	}

	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	signed, expiresAt, err := tokenSvc.Generate(*subject)
	if err != nil {
		fail(err)
	}
	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
	os.Exit(1)
}
