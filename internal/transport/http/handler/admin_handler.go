package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/feature/report"
	"carbon-tracker/internal/service"
	"carbon-tracker/internal/transport/http/ez"
)

type AdminHandler struct {
	accounts *service.AccountService
	reports  *service.ReportService
}

func NewAdminHandler(accounts *service.AccountService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{accounts: accounts, reports: reports}
}

type pageQ struct {
	Offset int `form:"offset,default=0"`
	Limit  int `form:"limit,default=0"`
}

type roleIn struct {
	Role string `json:"role" binding:"required"`
}

var adminOnly = []string{domain.RoleAdmin}

// MountAdmin registers every /admin/v1 route. The group is expected to sit
// behind AuthJWT; each action re-checks the role.
func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	g := ez.New(admin)

	ez.RegisterAction(g, ez.Action[pageQ, *service.UserPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, in *pageQ) (*service.UserPage, error) {
			return h.reports.ListUsers(c.Request.Context(), p, in.Offset, in.Limit)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			if id == p.UserID {
				return idOut{}, ez.BadRequest("cannot delete yourself")
			}
			return idOut{ID: id}, h.accounts.DeleteUser(c.Request.Context(), p, id)
		},
	})

	ez.RegisterAction(g, ez.Action[roleIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, in *roleIn) (*domain.User, error) {
			return h.accounts.SetRole(c.Request.Context(), p, c.Param("id"), in.Role)
		},
	})

	ez.RegisterAction(g, ez.Action[pageQ, []report.ReconciledCalculation]{
		Method: http.MethodGet,
		Path:   "/calculations",
		Binder: ez.BindQuery,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, in *pageQ) ([]report.ReconciledCalculation, error) {
			return h.reports.ListCalculations(c.Request.Context(), p, in.Limit)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *report.SystemStats]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (*report.SystemStats, error) {
			return h.reports.Stats(c.Request.Context(), p)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *report.ProvinceAnalytics]{
		Method: http.MethodGet,
		Path:   "/province-analytics",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (*report.ProvinceAnalytics, error) {
			return h.reports.ProvinceAnalytics(c.Request.Context(), p)
		},
	})

	admin.GET("/export", h.export)
}

// export renders the whole CSV before replying so a failure never yields a
// truncated file.
func (h *AdminHandler) export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reports.ExportCSV(c.Request.Context(), ez.Principal(c), &buf); err != nil {
		ez.Fail(c, err)
		return
	}
	name := fmt.Sprintf("carbon-calculations-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
