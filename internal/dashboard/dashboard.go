// Package dashboard resolves which dashboard a signed-in user lands on.
package dashboard

import "code2deploy-console/internal/model"

const (
	AdminRoute   = "/admin"
	MentorRoute  = "/mentor-dashboard"
	LearnerRoute = "/learner-dashboard"
)

// RouteFor returns exactly one route per role. Unknown roles, including
// the backend's sponsor, partner and staff values, land on the learner
// dashboard.
func RouteFor(role model.Role) string {
	switch role.Normalize() {
	case model.RoleAdmin:
		return AdminRoute
	case model.RoleMentor:
		return MentorRoute
	default:
		return LearnerRoute
	}
}
