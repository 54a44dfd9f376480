package services

import (
	"context"
	"time"

	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"

	"github.com/sirupsen/logrus"
)

// AuthorizationService is the permission gate every controller consults
// before touching state.
type AuthorizationService interface {
	Authorize(ctx context.Context, actor models.Actor, op models.Operation) error
	IsAuthorized(actor models.Actor, op models.Operation) *AuthorizationDecision
	Permissions(role models.Role) []string
}

type AuthorizationDecision struct {
	Actor     string          `json:"actor"`
	Role      models.Role     `json:"role"`
	Operation string          `json:"operation"`
	Decision  models.Decision `json:"decision"`
	Timestamp time.Time       `json:"timestamp"`
}

func (d *AuthorizationDecision) Allowed() bool {
	return d.Decision == models.DecisionAllow
}

type AuthorizationServiceImpl struct {
	logger logrus.FieldLogger
}

func NewAuthorizationService(log logrus.FieldLogger) AuthorizationService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthorizationServiceImpl{logger: log}
}

func (s *AuthorizationServiceImpl) IsAuthorized(actor models.Actor, op models.Operation) *AuthorizationDecision {
	return &AuthorizationDecision{
		Actor:     actor.Name,
		Role:      actor.Role,
		Operation: string(op),
		Decision:  models.Authorize(actor.Role, op),
		Timestamp: time.Now(),
	}
}

// Authorize returns a PermissionError when the actor's role may not perform op.
// An actor without a name is never authorized.
func (s *AuthorizationServiceImpl) Authorize(ctx context.Context, actor models.Actor, op models.Operation) error {
	decision := s.IsAuthorized(actor, op)
	if actor.Name == "" {
		decision.Decision = models.DecisionDeny
	}
	if decision.Allowed() {
		return nil
	}

	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"actor":     decision.Actor,
		"role":      decision.Role,
		"operation": decision.Operation,
	}).Warn("operation denied")

	return PermissionError("role %q may not %s", actor.Role, opLabel(op))
}

func (s *AuthorizationServiceImpl) Permissions(role models.Role) []string {
	return models.PermissionsFor(role)
}

func opLabel(op models.Operation) string {
	switch op {
	case models.OpReadTasks:
		return "read tasks"
	case models.OpReadDoubts:
		return "read doubts"
	case models.OpReadUsers:
		return "read users"
	case models.OpReadReports:
		return "read reports"
	}
	return string(op)
}
