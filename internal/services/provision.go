package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// RosterEntry is one user in the roster file. Either Password or a bcrypt
// PasswordHash must be present.
type RosterEntry struct {
	Name         string      `yaml:"name" validate:"required,max=100"`
	Role         models.Role `yaml:"role" validate:"required,oneof=Member Representative Admin"`
	Password     string      `yaml:"password" validate:"required_without=PasswordHash"`
	PasswordHash string      `yaml:"password_hash"`
}

type Roster struct {
	Users []RosterEntry `yaml:"users"`
}

// ParseRoster decodes a roster document and rejects unknown fields and
// duplicate names.
func ParseRoster(r io.Reader) (*Roster, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var roster Roster
	if err := dec.Decode(&roster); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}

	seen := make(map[string]struct{}, len(roster.Users))
	for i := range roster.Users {
		entry := &roster.Users[i]
		entry.Name = strings.TrimSpace(entry.Name)
		if err := validateStruct(entry); err != nil {
			return nil, fmt.Errorf("roster entry %d: %w", i+1, err)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("roster entry %d: duplicate name %q", i+1, entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	return &roster, nil
}

// ProvisionService loads the user roster. Users are only ever created here;
// the API has no way to add or change them.
type ProvisionService struct {
	users      repositories.UserRepository
	bcryptCost int
	logger     logrus.FieldLogger
}

func NewProvisionService(users repositories.UserRepository, bcryptCost int, log logrus.FieldLogger) *ProvisionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProvisionService{users: users, bcryptCost: bcryptCost, logger: log}
}

// ProvisionFile upserts every user listed in the roster at path. A missing file
// provisions nothing.
func (s *ProvisionService) ProvisionFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		s.logger.WithField("path", path).Warn("roster file not found, no users provisioned")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	roster, err := ParseRoster(f)
	if err != nil {
		return 0, err
	}
	return s.Provision(ctx, roster)
}

func (s *ProvisionService) Provision(ctx context.Context, roster *Roster) (int, error) {
	for _, entry := range roster.Users {
		hash := entry.PasswordHash
		if hash == "" {
			var err error
			if hash, err = HashPassword(entry.Password, s.bcryptCost); err != nil {
				return 0, err
			}
		}

		user := &models.User{
			ID:           uuid.Must(uuid.NewV4()),
			Name:         entry.Name,
			Role:         entry.Role,
			PasswordHash: hash,
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			return 0, fmt.Errorf("failed to provision %s: %w", entry.Name, err)
		}
	}

	s.logger.WithField("users", len(roster.Users)).Info("user roster provisioned")
	return len(roster.Users), nil
}
