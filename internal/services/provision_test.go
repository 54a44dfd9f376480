package services_test

import (
	"os"
	"path/filepath"
	"strings"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"golang.org/x/crypto/bcrypt"
)

func (s *PortalTestSuite) TestParseRosterRejects() {
	cases := map[string]string{
		"unknown field":  "users:\n  - name: a\n    role: Member\n    password: x\n    email: a@x\n",
		"bad role":       "users:\n  - name: a\n    role: Owner\n    password: x\n",
		"no password":    "users:\n  - name: a\n    role: Member\n",
		"duplicate name": "users:\n  - name: a\n    role: Member\n    password: x\n  - name: a\n    role: Admin\n    password: y\n",
		"missing name":   "users:\n  - role: Member\n    password: x\n",
	}
	for name, doc := range cases {
		s.Run(name, func() {
			_, err := services.ParseRoster(strings.NewReader(doc))
			s.Error(err)
		})
	}

	roster, err := services.ParseRoster(strings.NewReader(""))
	s.Require().NoError(err)
	s.Empty(roster.Users)
}

func (s *PortalTestSuite) TestProvisionFileIsIdempotent() {
	hash, err := services.HashPassword("pre-hashed", bcrypt.MinCost)
	s.Require().NoError(err)

	path := filepath.Join(s.T().TempDir(), "users.yaml")
	doc := "users:\n" +
		"  - name: alice\n    role: Representative\n    password: new-pw\n" +
		"  - name: carol\n    role: Member\n    password_hash: " + hash + "\n"
	s.Require().NoError(os.WriteFile(path, []byte(doc), 0o600))

	provisioner := services.NewProvisionService(s.usersRepo, bcrypt.MinCost, nil)
	for i := 0; i < 2; i++ {
		n, err := provisioner.ProvisionFile(s.ctx, path)
		s.Require().NoError(err)
		s.Equal(2, n)
	}

	users, err := s.usersRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(users, 5)

	alice, err := s.usersRepo.FindByName(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.alice.UserID, alice.ID)
	s.Equal(models.RoleRepresentative, alice.Role)

	_, _, err = s.auth.Login(s.ctx, "carol", "pre-hashed")
	s.NoError(err)

	n, err := provisioner.ProvisionFile(s.ctx, filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.NoError(err)
	s.Zero(n)
}
