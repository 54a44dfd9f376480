package services_test

import (
	"context"
	"sync"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"
	"devcatalyst/portal/internal/services"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

// pausingTaskRepository holds the first Select after it has read the rows,
// until release is closed.
type pausingTaskRepository struct {
	repositories.TaskRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausingTaskRepository) Select(ctx context.Context, filters repositories.Filters) ([]models.Task, error) {
	tasks, err := r.TaskRepository.Select(ctx, filters)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return tasks, err
}

func (s *PortalTestSuite) TestSummary() {
	for i := 0; i < 3; i++ {
		s.assign("pending", "alice", 2)
	}
	for i := 0; i < 2; i++ {
		task := s.assign("done", "bob", 4)
		_, err := s.tasks.Submit(s.ctx, s.bob, task.ID, services.SubmitInput{Link: "http://x"})
		s.Require().NoError(err)
		_, err = s.tasks.Verify(s.ctx, s.rhea, task.ID)
		s.Require().NoError(err)
	}

	summary, err := s.reports.Summary(s.ctx, s.ada)
	s.Require().NoError(err)
	s.Equal(5, summary.TotalTasks)
	s.Equal(3, summary.TasksByStatus[models.TaskStatusPending])
	s.Equal(0, summary.TasksByStatus[models.TaskStatusSubmitted])
	s.Equal(2, summary.TasksByStatus[models.TaskStatusCompleted])
	s.Equal(14, summary.TotalPoints)
	s.InDelta(0.4, summary.CompletionRate, 1e-9)
	s.Equal(0, summary.TotalDoubts)
	s.Equal(0.0, summary.ResolutionRate)
	s.Len(summary.MemberProgress, 2)
}

func (s *PortalTestSuite) TestSummaryPermissions() {
	_, err := s.reports.Summary(s.ctx, s.alice)
	s.requireKind(err, services.KindPermission)
	_, err = s.reports.Summary(s.ctx, s.rhea)
	s.requireKind(err, services.KindPermission)
}

func (s *PortalTestSuite) TestSummaryCacheIsInvalidatedByMutations() {
	s.assign("one", "alice", 1)

	summary, err := s.reports.Summary(s.ctx, s.ada)
	s.Require().NoError(err)
	s.Equal(1, summary.TotalTasks)

	exists, err := s.cache.Exists(s.ctx, "report:summary")
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "question"})
	s.Require().NoError(err)

	exists, err = s.cache.Exists(s.ctx, "report:summary")
	s.Require().NoError(err)
	s.False(exists)

	summary, err = s.reports.Summary(s.ctx, s.ada)
	s.Require().NoError(err)
	s.Equal(1, summary.TotalDoubts)
}

func (s *PortalTestSuite) TestSummaryBuiltAcrossMutationIsNotCached() {
	log, _ := logtest.NewNullLogger()
	tasksRepo := &pausingTaskRepository{
		TaskRepository: s.tasksRepo,
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
	reports := services.NewReportService(tasksRepo, s.doubtsRepo, s.usersRepo, s.gate, s.cache, 0, log)
	tasks := services.NewTaskService(s.tasksRepo, s.usersRepo, s.gate, reports, log)

	done := make(chan error, 1)
	go func() {
		_, err := reports.Summary(s.ctx, s.ada)
		done <- err
	}()

	<-tasksRepo.read
	_, err := tasks.Assign(s.ctx, s.rhea, services.AssignInput{Title: "late", Assignee: "alice"})
	s.Require().NoError(err)
	close(tasksRepo.release)
	s.Require().NoError(<-done)

	exists, err := s.cache.Exists(s.ctx, "report:summary")
	s.Require().NoError(err)
	s.False(exists)

	summary, err := reports.Summary(s.ctx, s.ada)
	s.Require().NoError(err)
	s.Equal(1, summary.TotalTasks)
}

func (s *PortalTestSuite) TestProgress() {
	task := s.assign("one", "alice", 8)
	s.assign("two", "alice", 2)
	s.assign("other", "bob", 100)
	_, err := s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: "http://x"})
	s.Require().NoError(err)
	_, err = s.tasks.Verify(s.ctx, s.rhea, task.ID)
	s.Require().NoError(err)

	progress, err := s.reports.Progress(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal(2, progress.Total)
	s.Equal(1, progress.Completed)
	s.Equal(10, progress.TotalPoints)
	s.Equal(8, progress.EarnedPoints)

	_, err = s.reports.Progress(s.ctx, s.ada)
	s.requireKind(err, services.KindValidation)
	_, err = s.reports.Progress(s.ctx, s.rhea)
	s.requireKind(err, services.KindPermission)
}
