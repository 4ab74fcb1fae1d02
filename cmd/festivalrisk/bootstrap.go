package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"festivalrisk/internal/config"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

// bootstrap creates the configured accounts and seeds the contact
// directory on first start.
func bootstrap(ctx context.Context, cfg config.BootstrapConfig, a *app) error {
	accounts := []store.NewUser{
		{Username: cfg.AdminUsername, Password: cfg.AdminPassword, Role: models.RoleAdmin},
		{Username: cfg.StaffUsername, Password: cfg.StaffPassword, Role: models.RoleUser},
	}
	for _, acct := range accounts {
		if acct.Username == "" {
			continue
		}
		created, err := a.users.Ensure(ctx, acct)
		if err != nil {
			return fmt.Errorf("bootstrap user %q: %w", acct.Username, err)
		}
		if created {
			logging.WithContext(ctx).Info().Str("user", acct.Username).Str("role", string(acct.Role)).Msg("created account")
		}
	}

	if cfg.ContactsSeedFile == "" {
		return nil
	}
	seed, err := loadContactSeed(cfg.ContactsSeedFile)
	if err != nil {
		return err
	}
	n, err := a.contacts.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed contacts: %w", err)
	}
	if n > 0 {
		logging.WithContext(ctx).Info().Int("contacts", n).Msg("seeded contact directory")
	}
	return nil
}

type contactSeed struct {
	Contacts []models.Contact `yaml:"contacts"`
}

func loadContactSeed(path string) ([]models.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contact seed: %w", err)
	}
	var seed contactSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse contact seed %s: %w", path, err)
	}
	return seed.Contacts, nil
}
