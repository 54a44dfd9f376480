package handlers_test

import (
	"context"
	"io"
	"time"

	"devcatalyst/portal/internal/middleware"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Assign(ctx context.Context, actor models.Actor, input services.AssignInput) (*models.Task, error) {
	args := m.Called(ctx, actor, input)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Submit(ctx context.Context, actor models.Actor, taskID string, input services.SubmitInput) (*models.Task, error) {
	args := m.Called(ctx, actor, taskID, input)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Verify(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	args := m.Called(ctx, actor, taskID)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	args := m.Called(ctx, actor, taskID)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, actor models.Actor, filter services.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, actor, filter)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) PendingVerification(ctx context.Context, actor models.Actor) ([]models.Task, error) {
	args := m.Called(ctx, actor)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

type MockDoubtService struct {
	mock.Mock
}

func (m *MockDoubtService) Raise(ctx context.Context, actor models.Actor, input services.RaiseInput) (*models.Doubt, error) {
	args := m.Called(ctx, actor, input)
	doubt, _ := args.Get(0).(*models.Doubt)
	return doubt, args.Error(1)
}

func (m *MockDoubtService) Reply(ctx context.Context, actor models.Actor, doubtID string, input services.ReplyInput) (*models.Doubt, error) {
	args := m.Called(ctx, actor, doubtID, input)
	doubt, _ := args.Get(0).(*models.Doubt)
	return doubt, args.Error(1)
}

func (m *MockDoubtService) Resolve(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error) {
	args := m.Called(ctx, actor, doubtID)
	doubt, _ := args.Get(0).(*models.Doubt)
	return doubt, args.Error(1)
}

func (m *MockDoubtService) Get(ctx context.Context, actor models.Actor, doubtID string) (*models.Doubt, error) {
	args := m.Called(ctx, actor, doubtID)
	doubt, _ := args.Get(0).(*models.Doubt)
	return doubt, args.Error(1)
}

func (m *MockDoubtService) List(ctx context.Context, actor models.Actor) ([]models.Doubt, error) {
	args := m.Called(ctx, actor)
	doubts, _ := args.Get(0).([]models.Doubt)
	return doubts, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, name, password string) (*models.User, *services.TokenPair, error) {
	args := m.Called(ctx, name, password)
	user, _ := args.Get(0).(*models.User)
	pair, _ := args.Get(1).(*services.TokenPair)
	return user, pair, args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*services.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAuthService) Revoke(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ParseAccessToken(tokenString string) (*services.Claims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*services.Claims)
	return claims, args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Clear(ctx context.Context, actor models.Actor, table, confirm string) (*services.AdminResult, error) {
	args := m.Called(ctx, actor, table, confirm)
	result, _ := args.Get(0).(*services.AdminResult)
	return result, args.Error(1)
}

func (m *MockAdminService) ResetAll(ctx context.Context, actor models.Actor, confirm string) (*services.AdminResult, error) {
	args := m.Called(ctx, actor, confirm)
	result, _ := args.Get(0).(*services.AdminResult)
	return result, args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) FileName(table string, t time.Time) string {
	return "devcatalyst_" + table + "_test.csv"
}

func (m *MockExportService) Export(ctx context.Context, actor models.Actor, table string, w io.Writer) (int, error) {
	args := m.Called(ctx, actor, table)
	if body := args.String(0); body != "" {
		io.WriteString(w, body)
	}
	return args.Int(1), args.Error(2)
}

var (
	alice = models.Actor{UserID: uuid.Must(uuid.NewV4()), Name: "alice", Role: models.RoleMember}
	rhea  = models.Actor{UserID: uuid.Must(uuid.NewV4()), Name: "rhea", Role: models.RoleRepresentative}
	ada   = models.Actor{UserID: uuid.Must(uuid.NewV4()), Name: "ada", Role: models.RoleAdmin}
)

// newRouter returns a test engine that authenticates every request as actor.
func newRouter(actor *models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, *actor)
		}
		c.Next()
	})
	return router
}
