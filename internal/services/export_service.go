package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/sirupsen/logrus"
)

const (
	TableTasks  = "tasks"
	TableDoubts = "doubts"
	TableUsers  = "users"
)

// ExportTables lists the tables that can be exported.
var ExportTables = []string{TableTasks, TableDoubts, TableUsers}

type ExportService interface {
	// FileName is the download name for an export of table taken at t.
	FileName(table string, t time.Time) string
	Export(ctx context.Context, actor models.Actor, table string, w io.Writer) (int, error)
}

type ExportServiceImpl struct {
	tasks  repositories.TaskRepository
	doubts repositories.DoubtRepository
	users  repositories.UserRepository
	gate   AuthorizationService
	logger logrus.FieldLogger
}

func NewExportService(tasks repositories.TaskRepository, doubts repositories.DoubtRepository, users repositories.UserRepository, gate AuthorizationService, log logrus.FieldLogger) *ExportServiceImpl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExportServiceImpl{tasks: tasks, doubts: doubts, users: users, gate: gate, logger: log}
}

func (s *ExportServiceImpl) FileName(table string, t time.Time) string {
	return fmt.Sprintf("devcatalyst_%s_%s.csv", table, t.Format("20060102_150405"))
}

// Export writes a header row and one row per record of table to w and returns
// the number of records written.
func (s *ExportServiceImpl) Export(ctx context.Context, actor models.Actor, table string, w io.Writer) (int, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpExport); err != nil {
		return 0, err
	}

	var (
		header []string
		rows   [][]string
	)
	switch strings.ToLower(strings.TrimSpace(table)) {
	case TableTasks:
		tasks, err := s.tasks.Select(ctx, nil)
		if err != nil {
			return 0, err
		}
		header, rows = taskRows(tasks)
	case TableDoubts:
		doubts, err := s.doubts.Select(ctx, nil)
		if err != nil {
			return 0, err
		}
		header, rows = doubtRows(doubts)
	case TableUsers:
		users, err := s.users.Select(ctx, nil)
		if err != nil {
			return 0, err
		}
		header, rows = userRows(users)
	default:
		return 0, ValidationError("unknown table %q; expected one of %s", table, strings.Join(ExportTables, ", "))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return 0, err
	}

	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"table": table,
		"rows":  len(rows),
		"actor": actor.Name,
	}).Info("table exported")
	return len(rows), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func taskRows(tasks []models.Task) ([]string, [][]string) {
	header := []string{
		"id", "title", "description", "assignee", "priority", "points", "due_date", "assigned_date",
		"status", "submission_link", "submission_notes", "submitted_at", "verified", "verified_by",
		"verified_at", "created_by",
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Description,
			t.Assignee,
			string(t.Priority),
			strconv.Itoa(t.Points),
			t.DueDate.Format("2006-01-02"),
			formatTime(t.AssignedDate),
			string(t.Status),
			t.SubmissionLink,
			t.SubmissionNotes,
			formatTimePtr(t.SubmittedAt),
			strconv.FormatBool(t.Verified),
			t.VerifiedBy,
			formatTimePtr(t.VerifiedAt),
			t.CreatedBy,
		})
	}
	return header, rows
}

func doubtRows(doubts []models.Doubt) ([]string, [][]string) {
	header := []string{
		"id", "author", "title", "body", "status", "latest_reply", "replies_count",
		"resolved_by", "resolved_at", "created_at",
	}
	rows := make([][]string, 0, len(doubts))
	for _, d := range doubts {
		rows = append(rows, []string{
			d.ID,
			d.Author,
			d.Title,
			d.Body,
			string(d.Status),
			d.LatestReply(),
			strconv.Itoa(len(d.Replies)),
			d.ResolvedBy,
			formatTimePtr(d.ResolvedAt),
			formatTime(d.CreatedAt),
		})
	}
	return header, rows
}

func userRows(users []models.User) ([]string, [][]string) {
	header := []string{"id", "name", "role", "created_at"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.ID.String(),
			u.Name,
			string(u.Role),
			formatTime(u.CreatedAt),
		})
	}
	return header, rows
}
