package services_test

import (
	"context"
	"errors"

	"devcatalyst/portal/internal/repositories"
	"devcatalyst/portal/internal/services"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

type failingDoubtClear struct {
	repositories.DoubtRepository
}

func (failingDoubtClear) Clear(context.Context) (int64, error) {
	return 0, errors.New("doubts table is locked")
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Invalidate(context.Context) {
	n.calls++
}

func (s *PortalTestSuite) TestClearNeedsConfirmation() {
	s.assign("one", "alice", 1)
	s.assign("two", "bob", 1)

	first, err := s.admin.Clear(s.ctx, s.ada, "tasks", "")
	s.Require().NoError(err)
	s.False(first.Done())
	s.Require().NotNil(first.Pending)
	s.Equal("clear:tasks", first.Pending.Action)
	s.NotEmpty(first.Pending.Token)

	remaining, err := s.tasksRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(remaining, 2)

	second, err := s.admin.Clear(s.ctx, s.ada, "tasks", first.Pending.Token)
	s.Require().NoError(err)
	s.True(second.Done())
	s.Equal(map[string]int64{"tasks": 2}, second.Removed)

	remaining, err = s.tasksRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(remaining)

	// a token is single use
	_, err = s.admin.Clear(s.ctx, s.ada, "tasks", first.Pending.Token)
	s.requireKind(err, services.KindValidation)
}

func (s *PortalTestSuite) TestClearRejectsWrongToken() {
	s.assign("keep", "alice", 1)

	pending, err := s.admin.Clear(s.ctx, s.ada, "tasks", "")
	s.Require().NoError(err)

	_, err = s.admin.Clear(s.ctx, s.ada, "tasks", "not-the-token")
	s.requireKind(err, services.KindValidation)

	// the failed attempt consumed the confirmation
	_, err = s.admin.Clear(s.ctx, s.ada, "tasks", pending.Pending.Token)
	s.requireKind(err, services.KindValidation)

	remaining, err := s.tasksRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(remaining, 1)
}

func (s *PortalTestSuite) TestConfirmationIsScopedToAction() {
	pending, err := s.admin.Clear(s.ctx, s.ada, "doubts", "")
	s.Require().NoError(err)

	_, err = s.admin.Clear(s.ctx, s.ada, "tasks", pending.Pending.Token)
	s.requireKind(err, services.KindValidation)
	_, err = s.admin.ResetAll(s.ctx, s.ada, pending.Pending.Token)
	s.requireKind(err, services.KindValidation)
}

func (s *PortalTestSuite) TestClearRejects() {
	_, err := s.admin.Clear(s.ctx, s.ada, "users", "")
	s.requireKind(err, services.KindValidation)

	_, err = s.admin.Clear(s.ctx, s.ada, "everything", "")
	s.requireKind(err, services.KindValidation)

	_, err = s.admin.Clear(s.ctx, s.rhea, "tasks", "")
	s.requireKind(err, services.KindPermission)

	users, err := s.usersRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(users, 4)
}

func (s *PortalTestSuite) TestResetAll() {
	s.assign("one", "alice", 1)
	doubt, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "question"})
	s.Require().NoError(err)
	_, err = s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: "answer"})
	s.Require().NoError(err)

	pending, err := s.admin.ResetAll(s.ctx, s.ada, "")
	s.Require().NoError(err)
	s.Equal("reset", pending.Pending.Action)

	done, err := s.admin.ResetAll(s.ctx, s.ada, pending.Pending.Token)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"tasks": 1, "doubts": 1}, done.Removed)

	summary, err := s.reports.Summary(s.ctx, s.ada)
	s.Require().NoError(err)
	s.Zero(summary.TotalTasks)
	s.Zero(summary.TotalDoubts)

	users, err := s.usersRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(users, 4)

	var warned bool
	for _, entry := range s.hook.AllEntries() {
		if entry.Message == "destructive action performed" {
			warned = true
		}
	}
	s.True(warned)
}

func (s *PortalTestSuite) TestResetAllInvalidatesAfterPartialFailure() {
	s.assign("gone", "alice", 1)

	log, hook := logtest.NewNullLogger()
	notifier := &countingNotifier{}
	admin := services.NewAdminService(s.tasksRepo, failingDoubtClear{s.doubtsRepo}, s.gate, s.cache, notifier, 0, log)

	pending, err := admin.ResetAll(s.ctx, s.ada, "")
	s.Require().NoError(err)
	s.Zero(notifier.calls)

	_, err = admin.ResetAll(s.ctx, s.ada, pending.Pending.Token)
	s.Require().Error(err)
	s.Equal(1, notifier.calls)

	remaining, err := s.tasksRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(remaining)
	s.Require().NotNil(hook.LastEntry())
	s.Equal("destructive action failed part way", hook.LastEntry().Message)
}
