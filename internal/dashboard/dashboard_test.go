package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"code2deploy-console/internal/model"
)

func TestRouteFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role model.Role
		want string
	}{
		{role: "admin", want: AdminRoute},
		{role: " Admin ", want: AdminRoute},
		{role: "mentor", want: MentorRoute},
		{role: "MENTOR", want: MentorRoute},
		{role: "learner", want: LearnerRoute},
		{role: "user", want: LearnerRoute},
		{role: "sponsor", want: LearnerRoute},
		{role: "staff", want: LearnerRoute},
		{role: "", want: LearnerRoute},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RouteFor(tt.role))
		})
	}
}

func TestRouteFor_ExactlyOneRoutePerRole(t *testing.T) {
	t.Parallel()

	routes := map[string]bool{AdminRoute: true, MentorRoute: true, LearnerRoute: true}
	for _, role := range []model.Role{model.RoleAdmin, model.RoleMentor, model.RoleLearner, "partner"} {
		got := RouteFor(role)
		assert.True(t, routes[got], "role %q resolved to %q", role, got)
		assert.Equal(t, got, RouteFor(role))
	}
	assert.NotEqual(t, RouteFor(model.RoleAdmin), RouteFor(model.RoleMentor))
	assert.NotEqual(t, RouteFor(model.RoleMentor), RouteFor(model.RoleLearner))
}
