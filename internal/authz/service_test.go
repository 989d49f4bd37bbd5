package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/storecase-identity/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc, db
}

func TestBuiltinSeedsEnforce(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if err := svc.Bootstrap(BuiltinRoleSeeds()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	cases := []struct {
		name   string
		role   string
		obj    string
		act    string
		expect bool
	}{
		{name: "user_me", role: constants.RoleUser, obj: "/api/auth/me", act: "get", expect: true},
		{name: "user_admin_denied", role: constants.RoleUser, obj: "/api/admin/users/7", act: "GET", expect: false},
		{name: "admin_user_lookup", role: constants.RoleAdmin, obj: "/api/admin/users/7", act: "GET", expect: true},
		{name: "admin_inherits_me", role: constants.RoleAdmin, obj: "/api/auth/me/", act: "GET", expect: true},
		{name: "admin_wrong_method", role: constants.RoleAdmin, obj: "/api/admin/users/7", act: "DELETE", expect: false},
		{name: "lowercase_role", role: "admin", obj: "/api/admin/users/7", act: "GET", expect: true},
		{name: "unknown_role", role: "GUEST", obj: "/api/auth/me", act: "GET", expect: false},
		{name: "empty_role", role: "", obj: "/api/auth/me", act: "GET", expect: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allow, err := svc.Enforce(tc.role, tc.obj, tc.act)
			if err != nil {
				t.Fatalf("enforce failed: %v", err)
			}
			if allow != tc.expect {
				t.Fatalf("allow want %v got %v", tc.expect, allow)
			}
		})
	}
}

func TestBootstrapIsIdempotentAndPersisted(t *testing.T) {
	svc, db := setupAuthzServiceTest(t)
	for i := 0; i < 2; i++ {
		if err := svc.Bootstrap(BuiltinRoleSeeds()); err != nil {
			t.Fatalf("bootstrap #%d failed: %v", i, err)
		}
	}

	var count int64
	if err := db.Table(casbinTableName).Count(&count).Error; err != nil {
		t.Fatalf("count rules failed: %v", err)
	}
	// 3 条 p 策略 + 1 条 g 继承
	if count != 4 {
		t.Fatalf("rule count want 4 got %d", count)
	}

	reloaded, err := NewService(db)
	if err != nil {
		t.Fatalf("reload service failed: %v", err)
	}
	allow, err := reloaded.Enforce(constants.RoleAdmin, "/api/auth/me", "GET")
	if err != nil || !allow {
		t.Fatalf("persisted inheritance should allow, got %v %v", allow, err)
	}
}

func TestGetRolePoliciesIncludesInherited(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if err := svc.Bootstrap(BuiltinRoleSeeds()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	policies, err := svc.GetRolePolicies(constants.RoleAdmin)
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("admin policies want 3 got %d: %+v", len(policies), policies)
	}
	found := false
	for _, policy := range policies {
		if policy.Subject == "role:USER" && policy.Object == "/api/auth/me" {
			found = true
		}
	}
	if !found {
		t.Fatalf("inherited user policy missing: %+v", policies)
	}
}

func TestInheritRoleRejectsSelf(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if err := svc.InheritRole("ADMIN", "admin"); err == nil {
		t.Fatalf("expected self inheritance error")
	}
}

func TestNilServiceUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.Enforce(constants.RoleUser, "/", "GET"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
	if _, err := NewService(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestNormalizeHelpers(t *testing.T) {
	if got := NormalizeObject("api/auth/me/"); got != "/api/auth/me" {
		t.Fatalf("normalize object got %s", got)
	}
	if got := NormalizeObject(""); got != "/" {
		t.Fatalf("empty object should be root, got %s", got)
	}
	if got := NormalizeAction(" post "); got != "POST" {
		t.Fatalf("normalize action got %s", got)
	}
	if got, err := SubjectForRole("role:admin"); err != nil || got != "role:ADMIN" {
		t.Fatalf("subject got %s %v", got, err)
	}
}
