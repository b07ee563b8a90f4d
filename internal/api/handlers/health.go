package handlers

import (
	"context"
	"fleet-console/pkg/redis"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type serviceStatus struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

type HealthHandler struct {
	db          *mongo.Database
	redisClient *redis.Client
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// HealthCheck reports Mongo and Redis connectivity. Redis being down is not
// fatal for the API (cache and limiter fall back), so only Mongo gates the
// overall status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	mongoStatus := h.checkMongoDB()
	redisStatus := h.checkRedis()

	response := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"services": gin.H{
			"mongodb": mongoStatus,
			"redis":   redisStatus,
		},
	}

	if !mongoStatus.Healthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	if !redisStatus.Healthy {
		response["status"] = "degraded"
	}

	c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) checkMongoDB() serviceStatus {
	if h.db == nil {
		return serviceStatus{Error: "database client not initialized"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.db.Client().Ping(ctx, nil); err != nil {
		return serviceStatus{Error: err.Error()}
	}
	return serviceStatus{Healthy: true, Detail: "connected"}
}

func (h *HealthHandler) checkRedis() serviceStatus {
	if h.redisClient == nil {
		return serviceStatus{Error: "redis client not initialized"}
	}

	hs := h.redisClient.HealthCheck()
	status := serviceStatus{
		Healthy: hs.IsConnected,
		Detail:  hs.ConnectionInfo + ", ping " + hs.ResponseTime.String(),
		Error:   hs.Error,
	}
	return status
}
