package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yknsg/ainews-digest/app/cfg"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/tasks"
)

type Handler struct {
	subscriberRepo database.SubscriberRepository
	articleRepo    database.ArticleRepository
	scheduler      tasks.TaskSchedulerInterface
}

func NewHandler(subscriberRepo database.SubscriberRepository,
	articleRepo database.ArticleRepository, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		subscriberRepo: subscriberRepo,
		articleRepo:    articleRepo,
		scheduler:      scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if subscriberCount, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		health["subscribers"] = subscriberCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if subscriberCount, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		stats["active_subscribers"] = subscriberCount
	}
	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["stored_articles"] = articleCount
	}

	lastTickAt, delivered := h.scheduler.LastTick()
	if !lastTickAt.IsZero() {
		stats["last_tick_at"] = lastTickAt.Format(time.RFC3339)
		stats["last_tick_deliveries"] = delivered
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerDelivery runs a delivery tick for the given hour outside the cron
// schedule. The tick runs in the background; a tick already in flight is
// skipped by the scheduler's overlap guard.
func (h *Handler) TriggerDelivery(c *gin.Context) {
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil || hour < 0 || hour > 23 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hour must be an integer within 0-23"})
		return
	}

	go h.scheduler.RunTick(hour)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "hour": hour})
}
