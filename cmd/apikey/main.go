package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"decision-eval/backend/internal/auth"
	"decision-eval/backend/internal/limits"
)

func main() {
	var (
		customerID = flag.String("customer", "", "Customer identifier to embed in the key")
		tier       = flag.String("tier", "demo", "Subscription tier: demo, startup, professional, enterprise")
		email      = flag.String("email", "", "Optional contact email to embed in the key")
		secret     = flag.String("secret", "", "Signing secret (env JWT_SECRET_KEY)")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		*secret = strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	}
	if strings.TrimSpace(*customerID) == "" {
		logrus.Fatal("-customer is required")
	}

	keys, err := auth.NewKeys(*secret)
	if err != nil {
		logrus.Fatalf("init key service: %v", err)
	}

	resolved := limits.ParseTier(strings.ToLower(strings.TrimSpace(*tier)))
	if string(resolved) != strings.ToLower(strings.TrimSpace(*tier)) {
		logrus.WithField("tier", *tier).Warn("unknown tier, issuing a demo key")
	}

	key, err := keys.Mint(*customerID, resolved, strings.TrimSpace(*email))
	if err != nil {
		logrus.Fatalf("mint key: %v", err)
	}

	ceilings := limits.CeilingsFor(resolved)
	logrus.WithFields(logrus.Fields{
		"customer": *customerID,
		"tier":     resolved,
		"minute":   ceilings.PerMinute,
		"day":      ceilings.PerDay,
		"month":    ceilings.PerMonth,
	}).Info("API key issued")
	fmt.Println(key)
}
