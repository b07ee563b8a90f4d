package cache

import (
	"net"
	"testing"
	"time"

	"fleet-console/internal/config"
	"fleet-console/internal/models"
	"fleet-console/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupTestCache(t *testing.T) (*RedisCacheManager, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	client := redis.NewClient(config.RedisConfig{
		Host:        host,
		Port:        port,
		DialTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { client.Close() })
	require.True(t, client.IsConnected())

	cacheConfig := DefaultCacheConfig()
	cacheConfig.KeyPrefix = "test:"

	return NewRedisCacheManager(client, cacheConfig), mr
}

func testVehicle(plate string) *models.Vehicle {
	return &models.Vehicle{
		ID:           primitive.NewObjectID(),
		LicensePlate: plate,
		Status:       models.VehicleStatusActive,
		CarType:      models.CarTypeMCar,
		Odometer:     42000,
	}
}

func TestRedisCacheManager_VehicleRoundTrip(t *testing.T) {
	manager, _ := setupTestCache(t)

	vehicle := testVehicle("KA01AB1234")
	id := vehicle.ID.Hex()

	require.NoError(t, manager.SetVehicle(id, vehicle, 30*time.Second))

	cached, err := manager.GetVehicle(id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, vehicle.LicensePlate, cached.LicensePlate)
	assert.Equal(t, vehicle.Odometer, cached.Odometer)
}

func TestRedisCacheManager_MissReturnsNil(t *testing.T) {
	manager, _ := setupTestCache(t)

	cached, err := manager.GetVehicle("missing")
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisCacheManager_InvalidateVehicle(t *testing.T) {
	manager, _ := setupTestCache(t)

	vehicle := testVehicle("KA01AB1234")
	id := vehicle.ID.Hex()
	require.NoError(t, manager.SetVehicle(id, vehicle, 30*time.Second))

	require.NoError(t, manager.InvalidateVehicle(id))

	cached, err := manager.GetVehicle(id)
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisCacheManager_VehicleListRoundTrip(t *testing.T) {
	manager, _ := setupTestCache(t)

	vehicles := []*models.Vehicle{testVehicle("KA01AB1234"), testVehicle("KA02CD5678")}
	require.NoError(t, manager.SetVehicleList("all_vehicles", vehicles, 2*time.Minute))

	cached, err := manager.GetVehicleList("all_vehicles")
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "KA01AB1234", cached[0].LicensePlate)
	assert.Equal(t, "KA02CD5678", cached[1].LicensePlate)
}

func TestRedisCacheManager_TTLExpiry(t *testing.T) {
	manager, mr := setupTestCache(t)

	vehicle := testVehicle("KA01AB1234")
	id := vehicle.ID.Hex()
	require.NoError(t, manager.SetVehicle(id, vehicle, 30*time.Second))

	mr.FastForward(31 * time.Second)

	cached, err := manager.GetVehicle(id)
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisCacheManager_Stats(t *testing.T) {
	manager, _ := setupTestCache(t)

	vehicle := testVehicle("KA01AB1234")
	id := vehicle.ID.Hex()
	require.NoError(t, manager.SetVehicle(id, vehicle, 30*time.Second))

	_, _ = manager.GetVehicle(id)        // hit
	_, _ = manager.GetVehicle("missing") // miss
	_, _ = manager.GetVehicle(id)        // hit

	stats := manager.GetCacheStats()
	assert.Equal(t, int64(2), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.InDelta(t, 0.667, stats.HitRate, 0.01)
}

func TestGetTTLForDataType(t *testing.T) {
	cfg := DefaultCacheConfig()

	assert.Equal(t, cfg.VehicleListTTL, cfg.GetTTLForDataType("vehicle_list"))
	assert.Equal(t, cfg.VehicleDataTTL, cfg.GetTTLForDataType("vehicle"))
	assert.Equal(t, cfg.VehicleDataTTL, cfg.GetTTLForDataType("anything_else"))
}
