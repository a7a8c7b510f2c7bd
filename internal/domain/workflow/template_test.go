package workflow

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agency-hub/agency-hub/internal/domain/user"
)

func validTemplate() *Template {
	return &Template{
		TemplateID: uuid.New(),
		Name:       "Design review",
		Status:     StatusActive,
		Steps: []StepTemplate{
			{StepTemplateID: uuid.New(), Order: 0, Label: "Producer review", Approver: RoleStrategy(user.RoleProducer)},
			{StepTemplateID: uuid.New(), Order: 1, Label: "Account sign-off", Approver: ProjectRoleStrategy("account_manager")},
		},
	}
}

func TestTemplateValidate(t *testing.T) {
	require.NoError(t, validTemplate().Validate())

	t.Run("missing name", func(t *testing.T) {
		tpl := validTemplate()
		tpl.Name = ""
		var verr *ValidationError
		require.ErrorAs(t, tpl.Validate(), &verr)
	})

	t.Run("no steps", func(t *testing.T) {
		tpl := validTemplate()
		tpl.Steps = nil
		require.Error(t, tpl.Validate())
	})

	t.Run("non-contiguous orders", func(t *testing.T) {
		tpl := validTemplate()
		tpl.Steps[1].Order = 3
		require.Error(t, tpl.Validate())
	})

	t.Run("duplicate orders", func(t *testing.T) {
		tpl := validTemplate()
		tpl.Steps[1].Order = 0
		require.Error(t, tpl.Validate())
	})

	t.Run("missing label", func(t *testing.T) {
		tpl := validTemplate()
		tpl.Steps[0].Label = ""
		require.Error(t, tpl.Validate())
	})
}

func TestApproverStrategyMutualExclusivity(t *testing.T) {
	s := ApproverStrategy{
		Kind:   StrategyRole,
		RoleID: user.RoleProducer,
		UserID: uuid.New(),
	}
	var verr *ValidationError
	require.ErrorAs(t, s.Validate(), &verr)

	empty := ApproverStrategy{Kind: StrategyRole}
	require.Error(t, empty.Validate())

	all := ApproverStrategy{
		Kind:           StrategyProjectRole,
		RoleID:         user.RoleProducer,
		ProjectRoleKey: "account_manager",
		UserID:         uuid.New(),
	}
	require.Error(t, all.Validate())
}

func TestApproverStrategyKindMismatch(t *testing.T) {
	s := ApproverStrategy{Kind: StrategyRole, ProjectRoleKey: "account_manager"}
	require.Error(t, s.Validate())

	bad := ApproverStrategy{Kind: StrategyKind("GROUP"), RoleID: user.RoleProducer}
	require.Error(t, bad.Validate())

	invalidRole := ApproverStrategy{Kind: StrategyRole, RoleID: user.Role("INTERN")}
	require.Error(t, invalidRole.Validate())
}

func TestApproverStrategyUnmarshalInfersKind(t *testing.T) {
	var s ApproverStrategy
	require.NoError(t, json.Unmarshal([]byte(`{"role_id":"PRODUCER"}`), &s))
	assert.Equal(t, StrategyRole, s.Kind)

	require.NoError(t, json.Unmarshal([]byte(`{"project_role_key":"account_manager"}`), &s))
	assert.Equal(t, StrategyProjectRole, s.Kind)

	err := json.Unmarshal([]byte(`{"role_id":"PRODUCER","project_role_key":"account_manager"}`), &s)
	require.Error(t, err)
}

func TestSpecificityAndAppliesTo(t *testing.T) {
	dept := "design"
	tt := "banner"
	generic := validTemplate()
	assert.Equal(t, 0, generic.Specificity())
	assert.True(t, generic.AppliesTo("design", "banner"))

	partial := validTemplate()
	partial.Department = &dept
	assert.Equal(t, 1, partial.Specificity())
	assert.True(t, partial.AppliesTo("design", "anything"))
	assert.False(t, partial.AppliesTo("video", "anything"))

	full := validTemplate()
	full.Department = &dept
	full.TaskType = &tt
	assert.Equal(t, 2, full.Specificity())
	assert.True(t, full.AppliesTo("design", "banner"))
	assert.False(t, full.AppliesTo("design", "print"))
}

func TestMoveStepSwapsAdjacentAndRenumbers(t *testing.T) {
	tpl := validTemplate()
	first := tpl.Steps[0].StepTemplateID
	second := tpl.Steps[1].StepTemplateID

	require.NoError(t, tpl.MoveStep(second, -1))
	require.NoError(t, tpl.Validate())
	assert.Equal(t, second, tpl.Steps[0].StepTemplateID)
	assert.Equal(t, 0, tpl.Steps[0].Order)
	assert.Equal(t, first, tpl.Steps[1].StepTemplateID)
	assert.Equal(t, 1, tpl.Steps[1].Order)

	// Moving the top step up is a no-op.
	require.NoError(t, tpl.MoveStep(second, -1))
	assert.Equal(t, second, tpl.Steps[0].StepTemplateID)
}

func TestRenumberAfterRemoval(t *testing.T) {
	tpl := validTemplate()
	tpl.Steps = append(tpl.Steps, StepTemplate{
		StepTemplateID: uuid.New(),
		Order:          2,
		Label:          "Creative director",
		Approver:       RoleStrategy(user.RoleCreativeDirector),
	})
	// Drop the middle step, leaving a gap.
	tpl.Steps = append(tpl.Steps[:1], tpl.Steps[2:]...)
	require.Error(t, tpl.Validate())

	tpl.Renumber()
	require.NoError(t, tpl.Validate())
	assert.Equal(t, 0, tpl.Steps[0].Order)
	assert.Equal(t, 1, tpl.Steps[1].Order)
}
