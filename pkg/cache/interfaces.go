package cache

import (
	"time"

	"fleet-console/internal/models"
)

// CacheManager defines the interface for caching operations
type CacheManager interface {
	// Vehicle operations
	GetVehicle(vehicleID string) (*models.Vehicle, error)
	SetVehicle(vehicleID string, vehicle *models.Vehicle, ttl time.Duration) error
	InvalidateVehicle(vehicleID string) error

	// Vehicle list operations
	GetVehicleList(key string) ([]*models.Vehicle, error)
	SetVehicleList(key string, vehicles []*models.Vehicle, ttl time.Duration) error

	// Generic operations
	Delete(key string) error

	// Statistics and health
	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate     float64 `json:"hitRate"`
	MissRate    float64 `json:"missRate"`
	TotalHits   int64   `json:"totalHits"`
	TotalMisses int64   `json:"totalMisses"`
}
