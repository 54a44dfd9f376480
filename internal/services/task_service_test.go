package services_test

import (
	"time"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"
)

func (s *PortalTestSuite) TestTaskLifecycle() {
	task := s.assign("Landing page", "alice", 10)
	s.Regexp(`^DC-[0-9A-F]{6}$`, task.ID)
	s.Equal(models.TaskStatusPending, task.Status)
	s.Equal("rhea", task.CreatedBy)
	s.False(task.Verified)

	submitted, err := s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: "http://x"})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusSubmitted, submitted.Status)
	s.Equal("http://x", submitted.SubmissionLink)
	s.NotNil(submitted.SubmittedAt)

	verified, err := s.tasks.Verify(s.ctx, s.rhea, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, verified.Status)
	s.True(verified.Verified)
	s.Equal("rhea", verified.VerifiedBy)

	stored, err := s.tasks.Get(s.ctx, s.alice, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, stored.Status)
	s.True(stored.Verified)
	s.Equal("http://x", stored.SubmissionLink)
}

func (s *PortalTestSuite) TestAssignDefaults() {
	before := time.Now().Add(-time.Second)
	task, err := s.tasks.Assign(s.ctx, s.rhea, services.AssignInput{
		Title:    "  Write docs  ",
		Assignee: "alice",
	})
	s.Require().NoError(err)
	s.Equal("Write docs", task.Title)
	s.Equal(models.PriorityMedium, task.Priority)
	s.Equal(0, task.Points)
	s.True(task.DueDate.After(before))
	s.True(task.AssignedDate.After(before))
	s.Zero(task.DaysLeft)
	s.False(task.Overdue)
}

func (s *PortalTestSuite) TestAssignValidation() {
	cases := []struct {
		name  string
		input services.AssignInput
	}{
		{"missing title", services.AssignInput{Assignee: "alice"}},
		{"unknown assignee", services.AssignInput{Title: "t", Assignee: "nobody"}},
		{"assignee is not a member", services.AssignInput{Title: "t", Assignee: "rhea"}},
		{"negative points", services.AssignInput{Title: "t", Assignee: "alice", Points: -1}},
		{"bad priority", services.AssignInput{Title: "t", Assignee: "alice", Priority: "Urgent"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.tasks.Assign(s.ctx, s.rhea, tc.input)
			s.requireKind(err, services.KindValidation)
		})
	}

	all, err := s.tasksRepo.Select(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *PortalTestSuite) TestAssignRequiresRepresentative() {
	for _, actor := range []models.Actor{s.alice, s.ada} {
		_, err := s.tasks.Assign(s.ctx, actor, services.AssignInput{Title: "t", Assignee: "alice"})
		s.requireKind(err, services.KindPermission)
	}
}

func (s *PortalTestSuite) TestSubmitCompletedTaskIsStateError() {
	task := s.assign("Done already", "alice", 1)
	_, err := s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: "http://x"})
	s.Require().NoError(err)
	_, err = s.tasks.Verify(s.ctx, s.rhea, task.ID)
	s.Require().NoError(err)

	_, err = s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: "http://y"})
	s.requireKind(err, services.KindState)

	stored, err := s.tasksRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("http://x", stored.SubmissionLink)
}

func (s *PortalTestSuite) TestSubmitByNonAssigneeIsPermissionError() {
	task := s.assign("Alice's task", "alice", 1)

	for _, actor := range []models.Actor{s.bob, s.rhea, s.ada} {
		_, err := s.tasks.Submit(s.ctx, actor, task.ID, services.SubmitInput{Link: "http://x"})
		s.requireKind(err, services.KindPermission)
	}

	stored, err := s.tasksRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPending, stored.Status)
}

func (s *PortalTestSuite) TestSubmitValidatesLink() {
	task := s.assign("Needs link", "alice", 1)

	_, err := s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: ""})
	s.requireKind(err, services.KindValidation)
	_, err = s.tasks.Submit(s.ctx, s.alice, task.ID, services.SubmitInput{Link: "not a url"})
	s.requireKind(err, services.KindValidation)

	_, err = s.tasks.Submit(s.ctx, s.alice, "DC-000000", services.SubmitInput{Link: "http://x"})
	s.requireKind(err, services.KindNotFound)
}

func (s *PortalTestSuite) TestVerifyRequiresSubmitted() {
	task := s.assign("Not yet", "alice", 1)

	_, err := s.tasks.Verify(s.ctx, s.rhea, task.ID)
	s.requireKind(err, services.KindState)

	_, err = s.tasks.Verify(s.ctx, s.alice, task.ID)
	s.requireKind(err, services.KindPermission)

	_, err = s.tasks.Verify(s.ctx, s.rhea, "DC-FFFFFF")
	s.requireKind(err, services.KindNotFound)
}

func (s *PortalTestSuite) TestListScopesMembers() {
	s.assign("a1", "alice", 5)
	s.assign("a2", "alice", 20)
	s.assign("b1", "bob", 1)

	own, err := s.tasks.List(s.ctx, s.alice, services.TaskFilter{Assignee: "bob"})
	s.Require().NoError(err)
	s.Len(own, 2)
	for _, t := range own {
		s.Equal("alice", t.Assignee)
	}

	all, err := s.tasks.List(s.ctx, s.ada, services.TaskFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	bobs, err := s.tasks.List(s.ctx, s.rhea, services.TaskFilter{Assignee: "bob"})
	s.Require().NoError(err)
	s.Len(bobs, 1)

	byPoints, err := s.tasks.List(s.ctx, s.rhea, services.TaskFilter{Sort: services.SortByPoints})
	s.Require().NoError(err)
	s.Equal([]int{20, 5, 1}, []int{byPoints[0].Points, byPoints[1].Points, byPoints[2].Points})

	_, err = s.tasks.List(s.ctx, s.rhea, services.TaskFilter{Sort: "colour"})
	s.requireKind(err, services.KindValidation)
	_, err = s.tasks.List(s.ctx, s.rhea, services.TaskFilter{Status: "Archived"})
	s.requireKind(err, services.KindValidation)
}

func (s *PortalTestSuite) TestGetOtherMembersTaskIsDenied() {
	task := s.assign("Bob's task", "bob", 1)

	_, err := s.tasks.Get(s.ctx, s.alice, task.ID)
	s.requireKind(err, services.KindPermission)

	got, err := s.tasks.Get(s.ctx, s.rhea, task.ID)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)
}

func (s *PortalTestSuite) TestPendingVerificationQueue() {
	first := s.assign("first", "alice", 1)
	second := s.assign("second", "bob", 1)
	s.assign("untouched", "alice", 1)

	_, err := s.tasks.Submit(s.ctx, s.alice, first.ID, services.SubmitInput{Link: "http://a"})
	s.Require().NoError(err)
	_, err = s.tasks.Submit(s.ctx, s.bob, second.ID, services.SubmitInput{Link: "http://b"})
	s.Require().NoError(err)

	queue, err := s.tasks.PendingVerification(s.ctx, s.rhea)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(first.ID, queue[0].ID)
	s.Equal(second.ID, queue[1].ID)

	_, err = s.tasks.PendingVerification(s.ctx, s.alice)
	s.requireKind(err, services.KindPermission)
}

func (s *PortalTestSuite) TestTaskReadsCarryDeadlines() {
	soon := time.Now().Add(72*time.Hour + time.Hour)
	late := time.Now().Add(-36 * time.Hour)
	upcoming, err := s.tasks.Assign(s.ctx, s.rhea, services.AssignInput{Title: "upcoming", Assignee: "alice", DueDate: &soon})
	s.Require().NoError(err)
	s.Equal(3, upcoming.DaysLeft)
	_, err = s.tasks.Assign(s.ctx, s.rhea, services.AssignInput{Title: "late", Assignee: "alice", DueDate: &late})
	s.Require().NoError(err)

	tasks, err := s.tasks.List(s.ctx, s.alice, services.TaskFilter{Sort: services.SortByDueDate})
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("late", tasks[0].Title)
	s.Equal(-2, tasks[0].DaysLeft)
	s.True(tasks[0].Overdue)
	s.Equal(3, tasks[1].DaysLeft)
	s.False(tasks[1].Overdue)

	stored, err := s.tasks.Get(s.ctx, s.alice, upcoming.ID)
	s.Require().NoError(err)
	s.Equal(3, stored.DaysLeft)
}
