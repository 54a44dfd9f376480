package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devcatalyst/portal/internal/cache"
	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

const (
	confirmKeyPrefix       = "confirm:"
	defaultConfirmationTTL = 2 * time.Minute

	actionReset = "reset"
)

// Confirmation is handed out by the first call of a destructive action. The
// second call must echo Token before ExpiresAt.
type Confirmation struct {
	Action    string    `json:"action"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AdminResult struct {
	// Pending is set when the action still needs confirming.
	Pending *Confirmation    `json:"confirmation,omitempty"`
	Removed map[string]int64 `json:"removed,omitempty"`
}

func (r *AdminResult) Done() bool {
	return r.Pending == nil
}

type AdminService interface {
	Clear(ctx context.Context, actor models.Actor, table, confirm string) (*AdminResult, error)
	ResetAll(ctx context.Context, actor models.Actor, confirm string) (*AdminResult, error)
}

type AdminServiceImpl struct {
	tasks    repositories.TaskRepository
	doubts   repositories.DoubtRepository
	gate     AuthorizationService
	cache    cache.Cache
	notifier ChangeNotifier
	ttl      time.Duration
	logger   logrus.FieldLogger
}

func NewAdminService(tasks repositories.TaskRepository, doubts repositories.DoubtRepository, gate AuthorizationService, c cache.Cache, notifier ChangeNotifier, ttl time.Duration, log logrus.FieldLogger) *AdminServiceImpl {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = defaultConfirmationTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AdminServiceImpl{tasks: tasks, doubts: doubts, gate: gate, cache: c, notifier: notifier, ttl: ttl, logger: log}
}

// Clear empties tasks or doubts (with their replies). Users are never cleared.
func (s *AdminServiceImpl) Clear(ctx context.Context, actor models.Actor, table, confirm string) (*AdminResult, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpClear); err != nil {
		return nil, err
	}

	table = strings.ToLower(strings.TrimSpace(table))
	switch table {
	case TableTasks, TableDoubts:
	case TableUsers:
		return nil, ValidationError("the user roster cannot be cleared")
	default:
		return nil, ValidationError("unknown table %q", table)
	}

	action := "clear:" + table
	return s.run(ctx, actor, action, confirm, func() (map[string]int64, error) {
		removed, err := s.clearTable(ctx, table)
		if err != nil {
			return nil, err
		}
		return map[string]int64{table: removed}, nil
	})
}

// ResetAll clears every task and doubt.
func (s *AdminServiceImpl) ResetAll(ctx context.Context, actor models.Actor, confirm string) (*AdminResult, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReset); err != nil {
		return nil, err
	}

	return s.run(ctx, actor, actionReset, confirm, func() (map[string]int64, error) {
		removed := make(map[string]int64, 2)
		for _, table := range []string{TableTasks, TableDoubts} {
			n, err := s.clearTable(ctx, table)
			if err != nil {
				return removed, err
			}
			removed[table] = n
		}
		return removed, nil
	})
}

func (s *AdminServiceImpl) clearTable(ctx context.Context, table string) (int64, error) {
	if table == TableTasks {
		return s.tasks.Clear(ctx)
	}
	return s.doubts.Clear(ctx)
}

func confirmKey(actor models.Actor, action string) string {
	return fmt.Sprintf("%s%s:%s", confirmKeyPrefix, actor.UserID.String(), action)
}

// run issues a confirmation when confirm is empty and otherwise redeems it and
// performs the action. A token is consumed by the first redemption attempt.
func (s *AdminServiceImpl) run(ctx context.Context, actor models.Actor, action, confirm string, perform func() (map[string]int64, error)) (*AdminResult, error) {
	log := logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"action": action,
		"actor":  actor.Name,
	})
	key := confirmKey(actor, action)

	confirm = strings.TrimSpace(confirm)
	if confirm == "" {
		token, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		pending := &Confirmation{
			Action:    action,
			Token:     token.String(),
			ExpiresAt: time.Now().Add(s.ttl).UTC(),
		}
		if err := s.cache.Set(ctx, key, pending.Token, s.ttl); err != nil {
			return nil, err
		}
		log.Info("destructive action awaiting confirmation")
		return &AdminResult{Pending: pending}, nil
	}

	var expected string
	if err := s.cache.Take(ctx, key, &expected); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ValidationError("confirmation for %s is missing or expired", action)
		}
		return nil, err
	}
	if expected != confirm {
		return nil, ValidationError("confirmation for %s does not match", action)
	}

	removed, err := perform()
	if len(removed) > 0 && s.notifier != nil {
		s.notifier.Invalidate(ctx)
	}
	if err != nil {
		log.WithError(err).WithField("removed", removed).Error("destructive action failed part way")
		return nil, err
	}

	log.WithField("removed", removed).Warn("destructive action performed")
	return &AdminResult{Removed: removed}, nil
}
