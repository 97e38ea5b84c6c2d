package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule mounts routes under /api/v1. api is public, authed sits behind
// AuthJWT.
type APIModule interface {
	MountAPI(api, authed *gin.RouterGroup)
}

// AdminModule mounts routes under /admin/v1, behind AuthJWT(ADMIN).
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// Modules may implement Priority to control mount order (lower first,
// default 100).
type prioritizer interface{ Priority() int }

// Registry collects modules for an engine. A module may implement either
// interface or both.
type Registry struct {
	api   []APIModule
	admin []AdminModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

func (r *Registry) Register(mod any) {
	if m, ok := mod.(APIModule); ok {
		r.api = append(r.api, m)
	}
	if m, ok := mod.(AdminModule); ok {
		r.admin = append(r.admin, m)
	}
}

func (r *Registry) MountAPI(api, authed *gin.RouterGroup) {
	mods := append([]APIModule(nil), r.api...)
	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, m := range mods {
		m.MountAPI(api, authed)
	}
}

func (r *Registry) MountAdmin(admin *gin.RouterGroup) {
	mods := append([]AdminModule(nil), r.admin...)
	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
