package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/tasks"
	"github.com/puteus/puteus/app/watch"
)

func NewHandler(watchService *watch.Service, sourceRepo database.SourceRepository,
	entryRepo database.WatchLogRepository, articleRepo database.ArticleRepository,
	scheduler tasks.TaskSchedulerInterface, scraperRunner ScraperRunner) *Handler {
	return &Handler{
		watchService:  watchService,
		sourceRepo:    sourceRepo,
		entryRepo:     entryRepo,
		articleRepo:   articleRepo,
		scheduler:     scheduler,
		scraperRunner: scraperRunner,
	}
}

func (h *Handler) CheckSource(c *gin.Context) {
	sourceID := c.Param("id")
	if sourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source id parameter"})
		return
	}

	article, err := h.watchService.Check(c.Request.Context(), sourceID)
	if err != nil {
		if errors.Is(err, watch.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		slog.Error("Source check failed", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Source check failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CheckResponse{
		SourceID: sourceID,
		Changed:  article != nil,
		Article:  articleResponse(article),
	})
}

func (h *Handler) CheckSourceBatch(c *gin.Context) {
	var req BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req.SourceIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_ids must not be empty"})
		return
	}

	outcomes, err := h.watchService.CheckBatch(c.Request.Context(), req.SourceIDs)
	if err != nil {
		slog.Error("Batch check failed", "count", len(req.SourceIDs), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "All source checks failed",
			"results": checkResponses(outcomes),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": checkResponses(outcomes),
		"total":   len(outcomes),
	})
}

func (h *Handler) CheckAllSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListActiveSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	enqueued := 0
	for _, source := range sources {
		task := tasks.NewCheckSourceTask(source.ID, h.watchService)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing check task", "source_id", source.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue check task",
				"details": err.Error(),
			})
			return
		}
		enqueued++
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"message":  "Check tasks enqueued successfully",
		"enqueued": enqueued,
	})
}

func (h *Handler) Scrape(c *gin.Context) {
	rulesetName := c.Param("ruleset")

	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	maxItems := -1
	if req.MaxItems != nil {
		maxItems = *req.MaxItems
	}

	items, err := h.scraperRunner.Scrape(c.Request.Context(), rulesetName, req.URL, maxItems)
	if err != nil {
		slog.Error("Scrape failed", "ruleset", rulesetName, "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scrape failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ruleset": rulesetName,
		"url":     req.URL,
		"total":   len(items),
		"items":   items,
	})
}

func (h *Handler) ListRulesets(c *gin.Context) {
	names := h.scraperRunner.RulesetNames()
	c.JSON(http.StatusOK, gin.H{
		"rulesets": names,
		"total":    len(names),
	})
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListActiveSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]SourceResponse, 0, len(sources))
	for _, source := range sources {
		info := SourceResponse{
			ID:           source.ID,
			SiteID:       source.SiteID,
			Type:         string(source.Type),
			URI:          source.URI,
			Selector:     source.Selector,
			SelectorKind: string(source.SelectorKind),
			Locale:       source.Locale,
		}
		if count, err := h.entryRepo.GetEntryCount(source.ID); err == nil {
			info.EntryCount = count
		}
		result = append(result, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": result,
		"total":   len(result),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}
	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles"] = articleCount
	}

	c.JSON(http.StatusOK, stats)
}

func checkResponses(outcomes []watch.CheckOutcome) []CheckResponse {
	results := make([]CheckResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		result := CheckResponse{
			SourceID: outcome.SourceID,
			Changed:  outcome.Article != nil,
			Article:  articleResponse(outcome.Article),
		}
		if outcome.Err != nil {
			result.Error = outcome.Err.Error()
		}
		results = append(results, result)
	}
	return results
}
