package services_test

import (
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"
)

func (s *PortalTestSuite) TestUserDirectory() {
	users := services.NewUserService(s.usersRepo, s.gate)

	members, err := users.List(s.ctx, s.rhea, models.RoleMember)
	s.Require().NoError(err)
	s.Require().Len(members, 2)
	s.Equal("alice", members[0].Name)
	s.Equal("bob", members[1].Name)

	all, err := users.List(s.ctx, s.ada, "")
	s.Require().NoError(err)
	s.Len(all, 4)

	_, err = users.List(s.ctx, s.ada, "Owner")
	s.requireKind(err, services.KindValidation)

	_, err = users.List(s.ctx, s.alice, "")
	s.requireKind(err, services.KindPermission)

	rhea, err := users.Get(s.ctx, s.ada, "rhea")
	s.Require().NoError(err)
	s.Equal(models.RoleRepresentative, rhea.Role)

	_, err = users.Get(s.ctx, s.ada, "nobody")
	s.requireKind(err, services.KindNotFound)
}
