package handlers

import (
	"net/http"
	"time"

	"github.com/voxprep/voxprep-backend/internal/core/interview"
	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/internal/repo/memory"
	"github.com/voxprep/voxprep-backend/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InterviewsHandler struct {
	Repo   *memory.InterviewRepo
	Scheme string
	Host   string
}

func NewInterviewsHandler(repo *memory.InterviewRepo, scheme, host string) *InterviewsHandler {
	return &InterviewsHandler{Repo: repo, Scheme: scheme, Host: host}
}

func (h *InterviewsHandler) Create(c *gin.Context) {
	var req types.CreateInterviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	itype, err := interview.ParseType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	switch req.DurationMinutes {
	case 0, 5, 10:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	iv := &memory.Interview{
		ID:        "itv_" + uuid.NewString(),
		CreatedAt: time.Now(),
		Type:      itype,
		Budget:    time.Duration(req.DurationMinutes) * time.Minute,
		Locale:    req.Locale,
	}
	h.Repo.Save(iv)
	c.JSON(http.StatusOK, types.CreateInterviewResp{
		InterviewID: iv.ID,
		WSURL:       h.Scheme + "://" + h.Host + "/v1/stream?interview=" + iv.ID,
	})
}

func (h *InterviewsHandler) Summary(c *gin.Context) {
	iv, ok := h.Repo.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, iv.Summary())
}

// Transcript serves the plain-text download of a finished interview.
func (h *InterviewsHandler) Transcript(c *gin.Context) {
	iv, ok := h.Repo.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	entries := iv.Entries()
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "empty_transcript"})
		return
	}
	name := transcript.ExportFilename(time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(transcript.Export(entries)))
}
