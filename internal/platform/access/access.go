package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-import/internal/platform/logging"
)

const (
	ObjectEmployee       = "employee"
	ObjectEmployeeImport = "employee_import"

	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRun    = "run"
)

// ErrForbidden はポリシーにより拒否されたことを表します。
var ErrForbidden = errors.New("access: forbidden")

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// DefaultPolicy は組み込みのロール定義です。admin は operator の権限を継承します。
var DefaultPolicy = []string{
	"p, operator, employee_import, view",
	"p, operator, employee_import, run",
	"p, operator, employee, view",
	"p, operator, employee, create",
	"p, admin, employee, update",
	"p, admin, employee, delete",
	"g, admin, operator",
}

// Enforcer は casbin によるアクセス判定を提供します。
type Enforcer struct {
	mu  sync.RWMutex
	enf *casbin.Enforcer
}

// New は組み込みポリシーに extra を追加した Enforcer を生成します。
func New(extra []string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("access: parse model: %w", err)
	}

	lines := make([]string, 0, len(DefaultPolicy)+len(extra))
	lines = append(lines, DefaultPolicy...)
	for _, line := range extra {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(strings.Join(lines, "\n")))
	if err != nil {
		return nil, fmt.Errorf("access: initialize enforcer: %w", err)
	}
	return &Enforcer{enf: enf}, nil
}

// Allowed は role が object に対して action を実行できるかを返します。
func (e *Enforcer) Allowed(role, object, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enf.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("access: enforce: %w", err)
	}
	return ok, nil
}

// Authorize は拒否された場合に ErrForbidden を返します。
func (e *Enforcer) Authorize(ctx context.Context, role, object, action string) error {
	ok, err := e.Allowed(role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"role":   role,
			"object": object,
			"action": action,
		}).Warn("access denied")
		return ErrForbidden
	}
	return nil
}
