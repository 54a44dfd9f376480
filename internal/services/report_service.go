package services

import (
	"context"
	"sync"
	"time"

	"devcatalyst/portal/internal/cache"
	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/sirupsen/logrus"
)

const (
	reportKeyPrefix  = "report:"
	summaryCacheKey  = reportKeyPrefix + "summary"
	defaultReportTTL = 5 * time.Minute
)

// Summary is the analytics view over every task and doubt.
type Summary struct {
	TotalTasks      int                        `json:"total_tasks"`
	TasksByStatus   map[models.TaskStatus]int  `json:"tasks_by_status"`
	TasksByPriority map[models.Priority]int    `json:"tasks_by_priority"`
	TasksByAssignee map[string]int             `json:"tasks_by_assignee"`
	TotalPoints     int                        `json:"total_points"`
	AveragePoints   float64                    `json:"average_points"`
	CompletionRate  float64                    `json:"completion_rate"`
	TotalDoubts     int                        `json:"total_doubts"`
	DoubtsByStatus  map[models.DoubtStatus]int `json:"doubts_by_status"`
	DoubtsByAuthor  map[string]int             `json:"doubts_by_author"`
	ResolutionRate  float64                    `json:"resolution_rate"`
	MemberProgress  []Progress                 `json:"member_progress"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

type ReportService interface {
	ChangeNotifier
	Summary(ctx context.Context, actor models.Actor) (*Summary, error)
	Progress(ctx context.Context, actor models.Actor) (*Progress, error)
}

type ReportServiceImpl struct {
	tasks  repositories.TaskRepository
	doubts repositories.DoubtRepository
	users  repositories.UserRepository
	gate   AuthorizationService
	cache  cache.Cache
	ttl    time.Duration
	logger logrus.FieldLogger

	// generation counts invalidations. A summary built across one is never
	// cached.
	mu         sync.Mutex
	generation uint64
}

func NewReportService(tasks repositories.TaskRepository, doubts repositories.DoubtRepository, users repositories.UserRepository, gate AuthorizationService, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *ReportServiceImpl {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReportServiceImpl{tasks: tasks, doubts: doubts, users: users, gate: gate, cache: c, ttl: ttl, logger: log}
}

// Summary is reserved for roles with read_reports beyond their own progress,
// so Members are sent to Progress instead.
func (s *ReportServiceImpl) Summary(ctx context.Context, actor models.Actor) (*Summary, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadReports); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleMember {
		return nil, PermissionError("members can only read their own progress")
	}

	var cached Summary
	if s.cache != nil {
		if err := s.cache.Get(ctx, summaryCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	generation := s.currentGeneration()
	summary, err := s.buildSummary(ctx)
	if err != nil {
		return nil, err
	}
	s.storeSummary(ctx, generation, summary)
	return summary, nil
}

func (s *ReportServiceImpl) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// storeSummary caches summary unless an invalidation happened after
// generation was read.
func (s *ReportServiceImpl) storeSummary(ctx context.Context, generation uint64, summary *Summary) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.WithContext(ctx, s.logger)
	if s.generation != generation {
		log.Debug("report summary went stale while building, not caching")
		return
	}
	if err := s.cache.Set(ctx, summaryCacheKey, summary, s.ttl); err != nil {
		log.WithError(err).Warn("could not cache report summary")
	}
}

func (s *ReportServiceImpl) buildSummary(ctx context.Context) (*Summary, error) {
	tasks, err := s.tasks.Select(ctx, nil)
	if err != nil {
		return nil, err
	}
	doubts, err := s.doubts.Select(ctx, nil)
	if err != nil {
		return nil, err
	}
	members, err := s.users.Select(ctx, repositories.Filters{"role": models.RoleMember})
	if err != nil {
		return nil, err
	}

	progress := make([]Progress, 0, len(members))
	for _, m := range members {
		progress = append(progress, MemberProgress(tasks, m.Name))
	}

	return &Summary{
		TotalTasks:      len(tasks),
		TasksByStatus:   CountByStatus(tasks),
		TasksByPriority: CountByPriority(tasks),
		TasksByAssignee: CountByAssignee(tasks),
		TotalPoints:     TotalPoints(tasks),
		AveragePoints:   AveragePoints(tasks),
		CompletionRate:  CompletionRate(tasks),
		TotalDoubts:     len(doubts),
		DoubtsByStatus:  CountDoubtsByStatus(doubts),
		DoubtsByAuthor:  CountDoubtsByAuthor(doubts),
		ResolutionRate:  ResolutionRate(doubts),
		MemberProgress:  progress,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// Progress returns the caller's own dashboard numbers.
func (s *ReportServiceImpl) Progress(ctx context.Context, actor models.Actor) (*Progress, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadReports); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleMember {
		return nil, ValidationError("progress is only tracked for members")
	}

	tasks, err := s.tasks.Select(ctx, repositories.Filters{"assignee": actor.Name})
	if err != nil {
		return nil, err
	}
	progress := MemberProgress(tasks, actor.Name)
	return &progress, nil
}

// Invalidate drops every cached report. Called after each mutation.
func (s *ReportServiceImpl) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if err := s.cache.DeletePattern(ctx, reportKeyPrefix+"*"); err != nil {
		logger.WithContext(ctx, s.logger).WithError(err).Warn("could not invalidate cached reports")
	}
}
