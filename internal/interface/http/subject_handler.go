package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/testskool/backend/internal/application"
	"github.com/testskool/backend/pkg/response"
)

type SubjectHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewSubjectHandler(svc *application.Service, logger *logrus.Logger) *SubjectHandler {
	return &SubjectHandler{Svc: svc, Logger: logger}
}

// List GET /api/subjects
// Public read; an empty catalog is a valid 200 with an empty list.
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.Svc.ListSubjects(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("subject list failed")
		response.Error[any](c, http.StatusInternalServerError, "unable to list subjects", nil)
		return
	}

	out := make([]gin.H, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, gin.H{"id": s.ID, "name": s.Name})
	}
	response.Success(c, http.StatusOK, out, "subjects", nil)
}
