package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
)

// ErrUnavailable 授权服务未初始化
var ErrUnavailable = errors.New("authz service unavailable")

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service Casbin 授权服务
// 主体为用户角色（USER/ADMIN），资源为请求路径，动作为 HTTP 方法
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforce 判断角色能否以 act 访问 obj
func (s *Service) Enforce(role, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, ErrUnavailable
	}
	subject, err := SubjectForRole(role)
	if err != nil {
		return false, nil
	}
	return s.enforcer.Enforce(subject, NormalizeObject(obj), NormalizeAction(act))
}

// GrantRolePolicy 为角色授予策略
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	subject, err := SubjectForRole(role)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(object), NormalizeAction(action)); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// InheritRole 让 role 继承 parent 的全部策略
func (s *Service) InheritRole(role, parent string) error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	child, err := SubjectForRole(role)
	if err != nil {
		return err
	}
	base, err := SubjectForRole(parent)
	if err != nil {
		return err
	}
	if child == base {
		return fmt.Errorf("role cannot inherit itself")
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", child, base); err != nil {
		return fmt.Errorf("inherit role failed: %w", err)
	}
	return nil
}

// GetRolePolicies 获取角色生效的策略（含继承）
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	subject, err := SubjectForRole(role)
	if err != nil {
		return nil, err
	}
	subjects := []string{subject}
	inherited, err := s.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get inherited roles failed: %w", err)
	}
	subjects = append(subjects, inherited...)

	seen := make(map[string]struct{})
	result := make([]Policy, 0)
	for _, sub := range subjects {
		rules, err := s.enforcer.GetFilteredPolicy(0, sub)
		if err != nil {
			return nil, fmt.Errorf("get policies failed: %w", err)
		}
		for _, policy := range convertPolicies(rules) {
			key := policy.Subject + "|" + policy.Object + "|" + policy.Action
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, policy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Object != result[j].Object {
			return result[i].Object < result[j].Object
		}
		if result[i].Action != result[j].Action {
			return result[i].Action < result[j].Action
		}
		return result[i].Subject < result[j].Subject
	})
	return result, nil
}

// ReloadPolicy 重新从数据库加载策略
func (s *Service) ReloadPolicy() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return s.enforcer.LoadPolicy()
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

// SubjectForRole 生成角色主体标识，如 role:ADMIN
func SubjectForRole(role string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)))
	if normalized == "" {
		return "", fmt.Errorf("role is required")
	}
	return rolePrefix + normalized, nil
}

// NormalizeObject 统一授权资源路径
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if len(normalized) > 1 {
		normalized = strings.TrimRight(normalized, "/")
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
