// Package main is a development tool that mints access tokens for
// testing gateways and services locally.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/config"
)

func main() {
	keyPath := flag.String("key", "", "Path to RSA private key (PEM)")
	issuer := flag.String("issuer", config.DefaultIssuer, "Token issuer")
	userID := flag.String("user-id", "", "Subject user ID (default: random UUID)")
	email := flag.String("email", "dev@example.com", "Subject email")
	name := flag.String("name", "Dev User", "Subject display name")
	roles := flag.String("roles", "user", "Comma-separated roles")
	permissions := flag.String("permissions", "", "Comma-separated permissions (action:resource)")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if *keyPath == "" {
		fail("missing -key: path to an RSA private key is required")
	}

	data, err := os.ReadFile(*keyPath)
	if err != nil {
		fail("reading key: %v", err)
	}

	key, err := auth.ParsePrivateKey(data)
	if err != nil {
		fail("parsing key: %v", err)
	}

	signer, err := auth.NewSigner(key, *issuer)
	if err != nil {
		fail("creating signer: %v", err)
	}

	subject := *userID
	if subject == "" {
		subject = uuid.New().String()
	}

	token, err := signer.Sign(&auth.Claims{
		UserID:      subject,
		Email:       *email,
		Name:        *name,
		Roles:       splitList(*roles),
		Permissions: splitList(*permissions),
	}, *ttl)
	if err != nil {
		fail("signing token: %v", err)
	}

	fmt.Println(token)
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tokengen: "+format+"\n", args...)
	os.Exit(1)
}
