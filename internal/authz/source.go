package authz

import (
	"context"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
)

type repoSource struct {
	roles repos.RoleRepo
}

// RepoSource loads roles from the role table.
func RepoSource(roles repos.RoleRepo) RoleSource {
	return repoSource{roles: roles}
}

func (s repoSource) AllRoles(ctx context.Context) ([]*types.Role, error) {
	return s.roles.ListAll(dbctx.Context{Ctx: ctx})
}
