package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ketyia/aidiary/internal/diary"
	"github.com/ketyia/aidiary/internal/pipeline"
	"go.uber.org/zap"
)

const requestIDContextKey = "aidiary_request_id"

var (
	errMissingPipeline   = errors.New("pipeline service dependency required")
	errMissingRepository = errors.New("record repository dependency required")
)

// Dependencies wires the handler's collaborators.
type Dependencies struct {
	Pipeline *pipeline.Service
	Records  *diary.Repository
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin engine with CORS and the diary routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Pipeline == nil {
		return nil, errMissingPipeline
	}
	if deps.Records == nil {
		return nil, errMissingRepository
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		pipeline: deps.Pipeline,
		records:  deps.Records,
		logger:   logger,
	}

	router.POST("/api", handler.handleSubmitQuestionnaire)
	router.GET("/api/generalai", handler.handleGenerateNarrative)
	router.POST("/api/generalai/complete", handler.handleComplete)
	router.GET("/api/list/:page", handler.handleListRecords)
	router.GET("/blogs", handler.handleListBlogs)

	return router, nil
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

type httpHandler struct {
	pipeline *pipeline.Service
	records  *diary.Repository
	logger   *zap.Logger
}

type questionnairePayload struct {
	Gender         string `json:"gender"`
	Age            string `json:"age"`
	TodaysEvent    string `json:"todaysEvent"`
	MemorableThing string `json:"memorableThing"`
	OneWord        string `json:"oneWord"`
}

func (h *httpHandler) handleSubmitQuestionnaire(c *gin.Context) {
	var request questionnairePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.pipeline.SubmitQuestionnaire(c.Request.Context(), diary.Questionnaire{
		Gender:         request.Gender,
		Age:            request.Age,
		TodaysEvent:    request.TodaysEvent,
		MemorableThing: request.MemorableThing,
		OneWord:        request.OneWord,
	})
	if err != nil {
		h.writePipelineError(c, "questionnaire submission failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Data inserted successfully"})
}

func (h *httpHandler) handleGenerateNarrative(c *gin.Context) {
	narrative, err := h.pipeline.GenerateNarrative(c.Request.Context())
	if err != nil {
		h.writePipelineError(c, "narrative generation failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"example": narrative})
}

type completionPayload struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (h *httpHandler) handleComplete(c *gin.Context) {
	var request completionPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.pipeline.Complete(c.Request.Context(), request.Name, request.Text)
	if err != nil {
		h.writePipelineError(c, "completion failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"example": result.Label})
}

type recordPayload struct {
	ID          uint    `json:"id"`
	Username    string  `json:"username"`
	Diaries     string  `json:"diaries"`
	ImageName   string  `json:"image_name"`
	AnaResult   string  `json:"ana_result"`
	AnaPositive float64 `json:"ana_positive"`
	AnaNeutral  float64 `json:"ana_neutral"`
	AnaNegative float64 `json:"ana_negative"`
	CreatedAt   string  `json:"created_at"`
}

func (h *httpHandler) handleListRecords(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource_not_found"})
		return
	}

	records, err := h.records.ListPage(c.Request.Context(), page)
	if errors.Is(err, diary.ErrPageOutOfRange) {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("record listing failed", zap.Error(err), zap.Int("page", page))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]recordPayload, 0, len(records))
	for _, record := range records {
		items = append(items, recordPayload{
			ID:          record.ID,
			Username:    record.Username,
			Diaries:     record.Diaries,
			ImageName:   record.ImageName,
			AnaResult:   record.AnaResult,
			AnaPositive: record.AnaPositive,
			AnaNeutral:  record.AnaNeutral,
			AnaNegative: record.AnaNegative,
			CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "page": page})
}

type blogPayload struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ImageName   string `json:"image_name"`
	Description string `json:"description"`
}

func (h *httpHandler) handleListBlogs(c *gin.Context) {
	blogs, err := h.records.ListBlogs(c.Request.Context())
	if err != nil {
		h.logger.Error("blog listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]blogPayload, 0, len(blogs))
	for _, blog := range blogs {
		items = append(items, blogPayload{
			Name:        blog.Name,
			URL:         blog.URL,
			ImageName:   blog.ImageName,
			Description: blog.Description,
		})
	}

	c.JSON(http.StatusOK, gin.H{"blogs": items})
}

// writePipelineError maps pipeline failures to HTTP statuses: a missing
// staged questionnaire is the caller's 404, upstream service failures are
// 502, and everything else is a 500. Service error codes are surfaced so the
// caller can decide whether a retry makes sense.
func (h *httpHandler) writePipelineError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err), zap.String("request_id", c.GetString(requestIDContextKey)))

	status := http.StatusInternalServerError
	label := "internal_error"
	switch {
	case errors.Is(err, diary.ErrNothingStaged):
		status = http.StatusNotFound
		label = "resource_not_found"
	case errors.Is(err, pipeline.ErrSynthesis),
		errors.Is(err, pipeline.ErrAnalysis),
		errors.Is(err, pipeline.ErrImageGen),
		errors.Is(err, pipeline.ErrArtifactStore):
		status = http.StatusBadGateway
		label = "upstream_failed"
	}

	payload := gin.H{"error": label}
	var serviceError *pipeline.ServiceError
	if errors.As(err, &serviceError) {
		payload["code"] = serviceError.Code()
	}
	c.JSON(status, payload)
}
