package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/sirupsen/logrus"
)

type RaiseInput struct {
	Title string `json:"title" validate:"max=200"`
	Body  string `json:"body" validate:"required,max=5000"`
}

type ReplyInput struct {
	Message string `json:"message" validate:"required,max=5000"`
}

type DoubtService interface {
	Raise(ctx context.Context, actor models.Actor, input RaiseInput) (*models.Doubt, error)
	Reply(ctx context.Context, actor models.Actor, doubtID string, input ReplyInput) (*models.Doubt, error)
	Resolve(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error)
	Get(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error)
	List(ctx context.Context, actor models.Actor) ([]models.Doubt, error)
}

type DoubtServiceImpl struct {
	doubts   repositories.DoubtRepository
	gate     AuthorizationService
	notifier ChangeNotifier
	logger   logrus.FieldLogger
}

func NewDoubtService(doubts repositories.DoubtRepository, gate AuthorizationService, notifier ChangeNotifier, log logrus.FieldLogger) *DoubtServiceImpl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DoubtServiceImpl{doubts: doubts, gate: gate, notifier: notifier, logger: log}
}

func (s *DoubtServiceImpl) Raise(ctx context.Context, actor models.Actor, input RaiseInput) (*models.Doubt, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpRaise); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	id, err := uniqueRecordID(ctx, doubtIDPrefix, s.doubts.Exists)
	if err != nil {
		return nil, err
	}

	doubt := &models.Doubt{
		ID:     id,
		Author: actor.Name,
		Title:  input.Title,
		Body:   input.Body,
		Status: models.DoubtStatusOpen,
	}
	if err := s.doubts.Insert(ctx, doubt); err != nil {
		return nil, err
	}
	doubt.Replies = []models.Reply{}

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"doubt_id": doubt.ID,
		"actor":    actor.Name,
	}).Info("doubt raised")
	return doubt, nil
}

// Reply appends to the thread. The doubt keeps its status, so replying to a
// resolved doubt is allowed.
func (s *DoubtServiceImpl) Reply(ctx context.Context, actor models.Actor, doubtID string, input ReplyInput) (*models.Doubt, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReply); err != nil {
		return nil, err
	}

	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	doubtID = strings.TrimSpace(doubtID)
	reply := &models.Reply{
		DoubtID:   doubtID,
		Author:    actor.Name,
		Message:   input.Message,
		CreatedAt: time.Now(),
	}
	if err := s.doubts.AppendReply(ctx, reply); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundError("doubt %s not found", doubtID)
		}
		return nil, err
	}

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"doubt_id": doubtID,
		"actor":    actor.Name,
	}).Info("doubt replied")
	return s.find(ctx, doubtID)
}

func (s *DoubtServiceImpl) Resolve(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpResolve); err != nil {
		return nil, err
	}

	doubt, err := s.find(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	if doubt.Status != models.DoubtStatusOpen {
		return nil, StateError("doubt %s is already resolved", doubt.ID)
	}

	now := time.Now()
	err = s.doubts.UpdateIfStatus(ctx, doubt.ID, models.DoubtStatusOpen, map[string]interface{}{
		"status":      models.DoubtStatusResolved,
		"resolved_by": actor.Name,
		"resolved_at": now,
	})
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, NotFoundError("doubt %s not found", doubt.ID)
	case errors.Is(err, repositories.ErrStatusMismatch):
		return nil, StateError("doubt %s is already resolved", doubt.ID)
	case err != nil:
		return nil, err
	}

	doubt.Status = models.DoubtStatusResolved
	doubt.ResolvedBy = actor.Name
	doubt.ResolvedAt = &now

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"doubt_id": doubt.ID,
		"actor":    actor.Name,
	}).Info("doubt resolved")
	return doubt, nil
}

func (s *DoubtServiceImpl) Get(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadDoubts); err != nil {
		return nil, err
	}
	doubt, err := s.find(ctx, doubtID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleMember && doubt.Author != actor.Name {
		return nil, PermissionError("doubt %s was not raised by %s", doubt.ID, actor.Name)
	}
	return doubt, nil
}

// List returns a member's own doubts newest first. Everyone else sees all
// doubts with open ones first.
func (s *DoubtServiceImpl) List(ctx context.Context, actor models.Actor) ([]models.Doubt, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadDoubts); err != nil {
		return nil, err
	}

	filters := repositories.Filters{}
	if actor.Role == models.RoleMember {
		filters["author"] = actor.Name
	}
	doubts, err := s.doubts.Select(ctx, filters)
	if err != nil {
		return nil, err
	}

	openFirst := actor.Role != models.RoleMember
	sort.SliceStable(doubts, func(i, j int) bool {
		if openFirst && doubts[i].Status != doubts[j].Status {
			return doubts[i].Status == models.DoubtStatusOpen
		}
		return doubts[i].CreatedAt.After(doubts[j].CreatedAt)
	})
	return doubts, nil
}

func (s *DoubtServiceImpl) find(ctx context.Context, doubtID string) (*models.Doubt, error) {
	doubt, err := s.doubts.FindByID(ctx, strings.TrimSpace(doubtID))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("doubt %s not found", doubtID)
	}
	return doubt, err
}

func (s *DoubtServiceImpl) changed(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Invalidate(ctx)
	}
}
