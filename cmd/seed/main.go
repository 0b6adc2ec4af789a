// seed applies migrations and stores a few identities in the local dev
// database, so sign-ins for these subjects skip provisioning or the phone gate.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/postgres"
)

type identitySpec struct {
	subject string
	holder  string
	phone   string
	note    string
}

var identities = []identitySpec{
	{"seed-linked", "hld_seed_001", "+15550000001", "linked, phone on file: provisioning is skipped"},
	{"seed-phone-only", "", "+15550000002", "phone on file: a holder is created on first sign-in"},
	{"google:seed-gated", "hld_seed_003", "", "external subject without phone: lands on the phone gate"},
	{"google:seed-open", "hld_seed_004", "+15550000004", "external subject with phone on file: gate opens immediately"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}

	repo := postgres.NewIdentityRepository(pool)

	for _, spec := range identities {
		err := repo.WithSubjectLock(ctx, spec.subject, func(ctx context.Context) error {
			if spec.holder != "" {
				linked := &domain.LinkedAccount{ID: spec.holder, Status: domain.LinkedStatusActive}
				if err := repo.SaveLinkedAccount(ctx, spec.subject, linked); err != nil {
					return err
				}
			}
			if spec.phone != "" {
				return repo.SavePhoneNumber(ctx, spec.subject, spec.phone)
			}
			return nil
		})
		if err != nil {
			pool.Close()
			log.Fatalf("seed %s: %v", spec.subject, err)
		}
	}

	pool.Close()

	fmt.Println("Seed complete")
	fmt.Println()
	for _, spec := range identities {
		fmt.Printf("  %-20s %s\n", spec.subject, spec.note)
	}
	fmt.Println()
	fmt.Println("Password subjects are backend user ids: create a backend user whose id")
	fmt.Println("matches a seed subject, then sign in:")
	fmt.Println()
	fmt.Printf("    curl -si -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"you@example.com\",\"password\":\"...\"}'\n")
	fmt.Println()
	fmt.Println("    # then, with the agentpay_session cookie from the response:")
	fmt.Println("    curl -s http://localhost:8080/auth/session -H 'Cookie: agentpay_session=...'")
}
