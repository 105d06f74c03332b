package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/service"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadDataset handles POST /datasets with a multipart "file" field.
func (h *Handler) UploadDataset(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: multipart field \"file\" required", errBadRequest))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	rows, err := h.svc.SaveDataset(c.Request.Context(), ownerOf(c), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rows": rows, "file": fh.Filename})
}

// Train handles POST /models/train.
func (h *Handler) Train(c *gin.Context) {
	rec, err := h.svc.Train(c.Request.Context(), ownerOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Predict handles POST /predict.
func (h *Handler) Predict(c *gin.Context) {
	var req pipeline.RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res, err := h.svc.Predict(c.Request.Context(), ownerOf(c), req.Record())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Models handles GET /models.
func (h *Handler) Models(c *gin.Context) {
	recs, err := h.svc.Models(c.Request.Context(), ownerOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": recs})
}

// Summary handles GET /datasets/summary.
func (h *Handler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), ownerOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
