package services_test

import (
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"
)

func (s *PortalTestSuite) TestDoubtThread() {
	doubt, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Title: "Deploy", Body: "How do I deploy?"})
	s.Require().NoError(err)
	s.Regexp(`^DQ-[0-9A-F]{6}$`, doubt.ID)
	s.Equal(models.DoubtStatusOpen, doubt.Status)
	s.Equal("alice", doubt.Author)
	s.Empty(doubt.Replies)

	replied, err := s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: "Use the pipeline"})
	s.Require().NoError(err)
	s.Equal(models.DoubtStatusOpen, replied.Status)
	s.Require().Len(replied.Replies, 1)
	s.Equal("rhea", replied.Replies[0].Author)
	s.Equal("Use the pipeline", replied.LatestReply())

	resolved, err := s.doubts.Resolve(s.ctx, s.rhea, doubt.ID)
	s.Require().NoError(err)
	s.Equal(models.DoubtStatusResolved, resolved.Status)
	s.Equal("rhea", resolved.ResolvedBy)
	s.NotNil(resolved.ResolvedAt)

	_, err = s.doubts.Resolve(s.ctx, s.rhea, doubt.ID)
	s.requireKind(err, services.KindState)

	// replies stay allowed once resolved
	after, err := s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: "Follow-up"})
	s.Require().NoError(err)
	s.Equal(models.DoubtStatusResolved, after.Status)
	s.Len(after.Replies, 2)
	s.Equal("Follow-up", after.LatestReply())
}

func (s *PortalTestSuite) TestDoubtPermissions() {
	doubt, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "Question"})
	s.Require().NoError(err)

	_, err = s.doubts.Raise(s.ctx, s.rhea, services.RaiseInput{Body: "Question"})
	s.requireKind(err, services.KindPermission)

	_, err = s.doubts.Reply(s.ctx, s.alice, doubt.ID, services.ReplyInput{Message: "bump"})
	s.requireKind(err, services.KindPermission)

	_, err = s.doubts.Resolve(s.ctx, s.ada, doubt.ID)
	s.requireKind(err, services.KindPermission)

	_, err = s.doubts.Get(s.ctx, s.bob, doubt.ID)
	s.requireKind(err, services.KindPermission)
}

func (s *PortalTestSuite) TestDoubtValidationAndNotFound() {
	_, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Title: "empty", Body: "   "})
	s.requireKind(err, services.KindValidation)

	_, err = s.doubts.Reply(s.ctx, s.rhea, "DQ-000000", services.ReplyInput{Message: "hello"})
	s.requireKind(err, services.KindNotFound)

	_, err = s.doubts.Resolve(s.ctx, s.rhea, "DQ-000000")
	s.requireKind(err, services.KindNotFound)

	doubt, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "Question"})
	s.Require().NoError(err)
	_, err = s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: ""})
	s.requireKind(err, services.KindValidation)
}

func (s *PortalTestSuite) TestDoubtListOrdering() {
	first, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "first"})
	s.Require().NoError(err)
	_, err = s.doubts.Raise(s.ctx, s.bob, services.RaiseInput{Body: "second"})
	s.Require().NoError(err)
	_, err = s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "third"})
	s.Require().NoError(err)

	_, err = s.doubts.Resolve(s.ctx, s.rhea, first.ID)
	s.Require().NoError(err)

	own, err := s.doubts.List(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Require().Len(own, 2)
	for _, d := range own {
		s.Equal("alice", d.Author)
	}

	all, err := s.doubts.List(s.ctx, s.rhea)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(models.DoubtStatusOpen, all[0].Status)
	s.Equal(models.DoubtStatusOpen, all[1].Status)
	s.Equal(first.ID, all[2].ID)
}
