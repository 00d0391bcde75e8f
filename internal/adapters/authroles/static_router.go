package authroles

import (
	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	"github.com/arco-rh/arco-client/internal/ports"
)

var _ ports.RoleRouter = StaticRouter{}

// StaticRouter maps each role tag to a fixed dashboard path.
// Matching is exact: no case folding and no role hierarchy.
type StaticRouter struct {
	AdminPath     string
	CompanyPath   string
	CandidatePath string
}

func (m StaticRouter) Destination(role domainauth.Role) (string, bool) {
	var path string
	switch role {
	case domainauth.RoleAdmin:
		path = m.AdminPath
	case domainauth.RoleCompany:
		path = m.CompanyPath
	case domainauth.RoleCandidate:
		path = m.CandidatePath
	}
	return path, path != ""
}
