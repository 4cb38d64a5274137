package router

import "github.com/gin-gonic/gin"

// Registry collects the modules mounted on the versioned API and on /api.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup // versioned prefix, e.g. /api/v1
	Root        *gin.RouterGroup // /api, for unversioned endpoints such as metrics
	modules     []Module
	rootModules []Module
}

func NewRegistry(engine *gin.Engine, prefix string) *Registry {
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &Registry{Engine: engine, API: engine.Group(prefix), Root: engine.Group("/api")}
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// AddRoot registers mod on /api instead of the versioned prefix.
func (r *Registry) AddRoot(mod Module) {
	r.rootModules = append(r.rootModules, mod)
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
	}
	for _, m := range r.rootModules {
		m.Register(r.Root)
	}
}
