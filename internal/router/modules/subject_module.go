package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/testskool/backend/internal/container"
	handlers "github.com/testskool/backend/internal/interface/http"
	"github.com/testskool/backend/internal/interface/middleware"
)

// SubjectModule exposes the public subject catalog.
type SubjectModule struct {
	Handler *handlers.SubjectHandler
}

func NewSubjectModule(h *handlers.SubjectHandler) *SubjectModule {
	return &SubjectModule{Handler: h}
}

func (m *SubjectModule) Register(rg *gin.RouterGroup) {
	listLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/subjects", listLimiter, m.Handler.List)
}
