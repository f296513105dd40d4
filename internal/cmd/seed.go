package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bhv-platform/bhv-go/internal/datastore"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/rbac"
)

// seedFile is the YAML layout accepted by "seed users".
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Email            string `yaml:"email"`
	Phone            string `yaml:"phone"`
	PushSubscription string `yaml:"pushSubscription"`
	Role             string `yaml:"role"`
	CustomerID       string `yaml:"customerId"`
	Location         string `yaml:"location"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

func (u seedUser) entity() (entities.User, error) {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Name) == "" {
		return entities.User{}, fmt.Errorf("user %q: id and name are required", u.ID)
	}
	role, ok := rbac.ParseRole(u.Role)
	if !ok {
		return entities.User{}, fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
	}
	active := true
	if u.Active != nil {
		active = *u.Active
	}
	return entities.User{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		PushSubscription: u.PushSubscription,
		Role:             string(role),
		CustomerID:       u.CustomerID,
		Location:         u.Location,
		Active:           active,
	}, nil
}

// parseSeedUsers decodes and validates a seed document.
func parseSeedUsers(data []byte) ([]entities.User, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(fmt.Errorf("parse seed file: %w", err)).
			Component("cmd").
			Category(errors.CategoryValidation).
			Build()
	}

	users := make([]entities.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		user, err := u.entity()
		if err != nil {
			return nil, errors.New(err).
				Component("cmd").
				Category(errors.CategoryValidation).
				Build()
		}
		users = append(users, user)
	}
	return users, nil
}

func seedCommand(opts *options) *cobra.Command {
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data into the store",
	}
	seed.AddCommand(&cobra.Command{
		Use:   "users <file.yaml>",
		Short: "Insert or replace alert recipients from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			users, err := parseSeedUsers(data)
			if err != nil {
				return err
			}

			store, err := datastore.NewManager(opts.settings.Database, opts.log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Initialize(); err != nil {
				return err
			}

			repo := repository.NewUserRepository(store.DB())
			for i := range users {
				if err := repo.SaveUser(cmd.Context(), &users[i]); err != nil {
					return err
				}
			}
			opts.log.Info("seeded users", logger.Int("count", len(users)), logger.String("file", args[0]))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users\n", len(users))
			return err
		},
	})
	return seed
}
