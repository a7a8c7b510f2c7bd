package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	"github.com/agency-hub/agency-hub/internal/domain/task"
	"github.com/agency-hub/agency-hub/internal/domain/user"
	"github.com/agency-hub/agency-hub/internal/domain/workflow"
	workflowmocks "github.com/agency-hub/agency-hub/internal/domain/workflow/mocks"
)

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *audit.AuditLog) error { return nil }
func (fakeAuditRepo) GetByID(context.Context, uuid.UUID) (*audit.AuditLog, error) {
	return nil, nil
}
func (fakeAuditRepo) GetByEntityID(context.Context, audit.EntityType, string) ([]*audit.AuditLog, error) {
	return nil, nil
}
func (fakeAuditRepo) Query(context.Context, audit.QueryFilter, *audit.Cursor, int) ([]*audit.AuditLog, *audit.Cursor, error) {
	return nil, nil, nil
}

func newService(t *testing.T) (*Service, *workflowmocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := workflowmocks.NewMockRepository(ctrl)
	auditSvc := appAudit.NewService(fakeAuditRepo{}, zerolog.Nop(), nil)
	return NewService(repo, auditSvc, zerolog.Nop()), repo
}

func strPtr(s string) *string { return &s }

func usableTemplate(name string, department, taskType *string, updated time.Time) *workflow.Template {
	return &workflow.Template{
		TemplateID: uuid.New(),
		Name:       name,
		Department: department,
		TaskType:   taskType,
		Status:     workflow.StatusActive,
		Steps: []workflow.StepTemplate{
			{StepTemplateID: uuid.New(), Order: 0, Label: "review", Approver: workflow.RoleStrategy(user.RoleProducer)},
		},
		UpdatedAt: updated,
	}
}

func TestCreateTemplateNormalizesSteps(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	tpl := &workflow.Template{
		Name: "design review",
		Steps: []workflow.StepTemplate{
			{Order: 1, Label: "second", Approver: workflow.RoleStrategy(user.RoleCreativeDirector)},
			{Order: 0, Label: "first", Approver: workflow.RoleStrategy(user.RoleProducer)},
		},
	}
	got, err := svc.CreateTemplate(context.Background(), tpl, "admin")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.TemplateID)
	assert.Equal(t, "first", got.Steps[0].Label)
	assert.Equal(t, "second", got.Steps[1].Label)
	for _, st := range got.Steps {
		assert.NotEqual(t, uuid.Nil, st.StepTemplateID)
		assert.Equal(t, got.TemplateID, st.TemplateID)
	}
}

func TestCreateTemplateRejectsInvalidSteps(t *testing.T) {
	svc, _ := newService(t)

	tpl := &workflow.Template{
		Name: "broken",
		Steps: []workflow.StepTemplate{
			{Order: 0, Label: "dup", Approver: workflow.RoleStrategy(user.RoleProducer)},
			{Order: 0, Label: "dup again", Approver: workflow.RoleStrategy(user.RoleProducer)},
		},
	}
	_, err := svc.CreateTemplate(context.Background(), tpl, "admin")
	var verr *workflow.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteTemplateProtected(t *testing.T) {
	svc, repo := newService(t)

	tpl := usableTemplate("seeded", nil, nil, time.Now())
	tpl.Status = workflow.StatusSystemProtected
	repo.EXPECT().GetByID(gomock.Any(), tpl.TemplateID).Return(tpl, nil)

	err := svc.DeleteTemplate(context.Background(), tpl.TemplateID, "admin")
	assert.ErrorIs(t, err, workflow.ErrProtectedTemplate)
}

func TestDeleteTemplate(t *testing.T) {
	svc, repo := newService(t)

	tpl := usableTemplate("removable", nil, nil, time.Now())
	repo.EXPECT().GetByID(gomock.Any(), tpl.TemplateID).Return(tpl, nil)
	repo.EXPECT().Delete(gomock.Any(), tpl.TemplateID).Return(nil)

	assert.NoError(t, svc.DeleteTemplate(context.Background(), tpl.TemplateID, "admin"))
}

func TestFindApplicablePrefersSpecificity(t *testing.T) {
	svc, repo := newService(t)

	generic := usableTemplate("generic", nil, nil, time.Now())
	byDept := usableTemplate("by department", strPtr("design"), nil, time.Now())
	exact := usableTemplate("exact", strPtr("design"), strPtr("banner"), time.Now())
	repo.EXPECT().ListUsable(gomock.Any()).Return([]*workflow.Template{generic, byDept, exact}, nil)

	got, err := svc.FindApplicable(context.Background(), &task.Task{Department: "design", TaskType: "banner"})
	require.NoError(t, err)
	assert.Equal(t, exact.TemplateID, got.TemplateID)
}

func TestFindApplicableTieBreaksOnUpdatedAt(t *testing.T) {
	svc, repo := newService(t)

	older := usableTemplate("older", strPtr("design"), nil, time.Now().Add(-time.Hour))
	newer := usableTemplate("newer", strPtr("design"), nil, time.Now())
	repo.EXPECT().ListUsable(gomock.Any()).Return([]*workflow.Template{older, newer}, nil)

	got, err := svc.FindApplicable(context.Background(), &task.Task{Department: "design", TaskType: "banner"})
	require.NoError(t, err)
	assert.Equal(t, newer.TemplateID, got.TemplateID)
}

func TestFindApplicableFiltersByMatchExpression(t *testing.T) {
	svc, repo := newService(t)

	rush := usableTemplate("rush", strPtr("design"), nil, time.Now())
	rush.MatchExpression = strPtr("priority >= 3")
	normal := usableTemplate("normal", strPtr("design"), nil, time.Now().Add(-time.Minute))
	repo.EXPECT().ListUsable(gomock.Any()).Return([]*workflow.Template{rush, normal}, nil)

	got, err := svc.FindApplicable(context.Background(), &task.Task{Department: "design", Priority: 1})
	require.NoError(t, err)
	assert.Equal(t, normal.TemplateID, got.TemplateID)

	repo.EXPECT().ListUsable(gomock.Any()).Return([]*workflow.Template{rush, normal}, nil)
	got, err = svc.FindApplicable(context.Background(), &task.Task{Department: "design", Priority: 5})
	require.NoError(t, err)
	assert.Equal(t, rush.TemplateID, got.TemplateID)
}

func TestFindApplicableNoCandidate(t *testing.T) {
	svc, repo := newService(t)

	byDept := usableTemplate("video only", strPtr("video"), nil, time.Now())
	repo.EXPECT().ListUsable(gomock.Any()).Return([]*workflow.Template{byDept}, nil)

	got, err := svc.FindApplicable(context.Background(), &task.Task{Department: "design"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEvaluateMatch(t *testing.T) {
	cases := []struct {
		expr   string
		params map[string]interface{}
		want   bool
		ok     bool
	}{
		{"", nil, true, true},
		{"true", nil, true, true},
		{"false", nil, false, true},
		{"priority > 2", map[string]interface{}{"priority": 3}, true, true},
		{"department == 'design'", map[string]interface{}{"department": "video"}, false, true},
		{"priority +", map[string]interface{}{"priority": 1}, false, false},
		{"priority + 1", map[string]interface{}{"priority": 1}, false, false},
	}
	for _, tc := range cases {
		got, err := evaluateMatch(tc.expr, tc.params)
		if tc.ok {
			require.NoError(t, err, tc.expr)
			assert.Equal(t, tc.want, got, tc.expr)
		} else {
			assert.Error(t, err, tc.expr)
		}
	}
}
