package services_test

import (
	"bytes"
	"encoding/csv"
	"time"

	"devcatalyst/portal/internal/services"
)

func (s *PortalTestSuite) readCSV(buf *bytes.Buffer) [][]string {
	records, err := csv.NewReader(buf).ReadAll()
	s.Require().NoError(err)
	return records
}

func (s *PortalTestSuite) TestExportFileName() {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	s.Equal("devcatalyst_tasks_20240309_140507.csv", s.export.FileName("tasks", at))
}

func (s *PortalTestSuite) TestExportTasks() {
	task := s.assign("Export me, \"quoted\"", "alice", 7)

	var buf bytes.Buffer
	n, err := s.export.Export(s.ctx, s.ada, "tasks", &buf)
	s.Require().NoError(err)
	s.Equal(1, n)

	records := s.readCSV(&buf)
	s.Require().Len(records, 2)
	s.Equal("id", records[0][0])
	s.Equal(task.ID, records[1][0])
	s.Equal(`Export me, "quoted"`, records[1][1])
	s.Equal("alice", records[1][3])
	s.Equal("7", records[1][5])
	s.Equal("Pending", records[1][8])
}

func (s *PortalTestSuite) TestExportDoubtsIncludesLatestReply() {
	doubt, err := s.doubts.Raise(s.ctx, s.alice, services.RaiseInput{Body: "question"})
	s.Require().NoError(err)
	_, err = s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: "first answer"})
	s.Require().NoError(err)
	_, err = s.doubts.Reply(s.ctx, s.rhea, doubt.ID, services.ReplyInput{Message: "second answer"})
	s.Require().NoError(err)

	var buf bytes.Buffer
	_, err = s.export.Export(s.ctx, s.ada, "doubts", &buf)
	s.Require().NoError(err)

	records := s.readCSV(&buf)
	s.Require().Len(records, 2)
	s.Equal([]string{"latest_reply", "replies_count"}, records[0][5:7])
	s.Equal("second answer", records[1][5])
	s.Equal("2", records[1][6])
}

func (s *PortalTestSuite) TestExportUsersOmitsPasswords() {
	var buf bytes.Buffer
	n, err := s.export.Export(s.ctx, s.ada, "users", &buf)
	s.Require().NoError(err)
	s.Equal(4, n)
	s.NotContains(buf.String(), "$2a$")
	s.Equal([]string{"id", "name", "role", "created_at"}, s.readCSV(&buf)[0])
}

func (s *PortalTestSuite) TestExportRejects() {
	var buf bytes.Buffer
	_, err := s.export.Export(s.ctx, s.rhea, "tasks", &buf)
	s.requireKind(err, services.KindPermission)

	_, err = s.export.Export(s.ctx, s.ada, "replies", &buf)
	s.requireKind(err, services.KindValidation)
	s.Zero(buf.Len())
}
