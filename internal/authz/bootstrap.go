package authz

import (
	"fmt"

	"github.com/storecase-identity/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleUser,
			Policies: []Policy{
				{Object: "/api/auth/me", Action: "GET"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{constants.RoleUser},
			Policies: []Policy{
				{Object: "/api/admin/users/:id", Action: "GET"},
				{Object: "/api/admin/authz/policies", Action: "GET"},
			},
		},
	}
}

// Bootstrap 写入预置角色，已存在的策略保持不变
func (s *Service) Bootstrap(seeds []RoleSeed) error {
	for _, seed := range seeds {
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Role, err)
			}
		}
		for _, parent := range seed.Inherits {
			if err := s.InheritRole(seed.Role, parent); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Role, err)
			}
		}
	}
	return nil
}
