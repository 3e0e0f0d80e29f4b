package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/form"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-import/internal/core/batch"
	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
	"github.com/ogurasousui/codex-employee-import/internal/platform/access"
)

// Authorizer はロールごとの操作可否を判定します。
type Authorizer interface {
	Authorize(ctx context.Context, role, object, action string) error
}

// SessionOptions はセッション Cookie の設定です。
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
}

// Deps は Server の依存関係です。Metrics が nil の場合、メトリクスエンドポイントは公開しません。
// TrustRoleHeader が false の間は RoleHeader を読まず、常に DefaultRole で判定します。
type Deps struct {
	Imports         employeeimport.UseCase
	Employees       employee.UseCase
	Authz           Authorizer
	Logger          *logrus.Logger
	Session         SessionOptions
	RoleHeader      string
	TrustRoleHeader bool
	DefaultRole     string
	Metrics         http.Handler
	MetricsPath     string
}

// Server は社員インポート画面と社員 API を提供します。
type Server struct {
	imports         employeeimport.UseCase
	employees       employee.UseCase
	authz           Authorizer
	logger          *logrus.Logger
	session         SessionOptions
	roleHeader      string
	trustRoleHeader bool
	defaultRole     string
	metrics         http.Handler
	metricsPath     string
	tmpl            *template.Template
	decoder         *form.Decoder
}

// NewServer は Server を生成します。
func NewServer(deps Deps) (*Server, error) {
	if deps.Imports == nil || deps.Employees == nil || deps.Authz == nil {
		return nil, errors.New("web: imports, employees and authz are required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Session.CookieName == "" {
		deps.Session.CookieName = "employee_import_session"
	}
	if deps.RoleHeader == "" {
		deps.RoleHeader = "X-Role"
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = "/metrics"
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{
		imports:         deps.Imports,
		employees:       deps.Employees,
		authz:           deps.Authz,
		logger:          deps.Logger,
		session:         deps.Session,
		roleHeader:      deps.RoleHeader,
		trustRoleHeader: deps.TrustRoleHeader,
		defaultRole:     deps.DefaultRole,
		metrics:         deps.Metrics,
		metricsPath:     deps.MetricsPath,
		tmpl:            tmpl,
		decoder:         form.NewDecoder(),
	}, nil
}

// Routes はルーティング済みの gin.Engine を返します。
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET(s.metricsPath, gin.WrapH(s.metrics))
	}

	app := r.Group("/", s.sessionMiddleware(), s.roleMiddleware())

	imports := app.Group("/employees/import")
	view := s.authorize(access.ObjectEmployeeImport, access.ActionView)
	run := s.authorize(access.ObjectEmployeeImport, access.ActionRun)
	imports.GET("/new", view, s.entryPage)
	imports.POST("/new", run, s.saveBatch)
	imports.POST("/new/rows", view, s.addRow)
	imports.GET("/batches", view, s.batchesPage)
	imports.POST("/batches", run, s.chooseBatches)
	imports.GET("", view, s.importPage)
	imports.POST("", run, s.runImport)
	imports.GET("/messages/:kind", view, s.message)

	employees := app.Group("/employees")
	employees.GET("", s.authorize(access.ObjectEmployee, access.ActionView), s.listEmployees)
	employees.GET("/:id", s.authorize(access.ObjectEmployee, access.ActionView), s.getEmployee)
	employees.DELETE("/:id", s.authorize(access.ObjectEmployee, access.ActionDelete), s.deleteEmployee)

	return r
}

// fail はエラーを HTTP ステータスに変換して応答します。内部エラーの詳細は返しません。
func (s *Server) fail(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, employeeimport.ErrInvalidSession),
		errors.Is(err, employeeimport.ErrInvalidRows),
		errors.Is(err, batch.ErrInvalidName),
		errors.Is(err, batch.ErrEmptyBatch),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// commands はコマンドリストを JSON で返します。
func commands(c *gin.Context, code int, list *CommandList) {
	if list.Commands == nil {
		list.Commands = []Command{}
	}
	c.JSON(code, list)
}

func fieldMessage(f employeeimport.FieldError) string {
	field := "Name"
	if f.Field == "email" {
		field = "Email"
	}
	switch f.Tag {
	case "required":
		return fmt.Sprintf("Employee %d: %s is required", f.Index+1, field)
	case "email":
		return fmt.Sprintf("Employee %d: %s is not a valid email address", f.Index+1, field)
	default:
		return fmt.Sprintf("Employee %d: %s is invalid", f.Index+1, field)
	}
}
