package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/database"
)

const healthCheckTimeout = 5 * time.Second

type HealthService struct {
	logger   *logrus.Logger
	critical map[string]func(context.Context) error
	optional map[string]func(context.Context) error

	healthCheckStatus *prometheus.GaugeVec
	lastHealthCheck   *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
}

// NewHealthService checks whichever backends db holds. PostgreSQL and the
// preferences Redis are critical; Neo4j and the response cache are not.
func NewHealthService(logger *logrus.Logger, db *database.Database, registry prometheus.Registerer) *HealthService {
	hs := &HealthService{
		logger:   logger,
		critical: make(map[string]func(context.Context) error),
		optional: make(map[string]func(context.Context) error),
	}

	if db != nil {
		if db.PG != nil {
			hs.critical["postgresql"] = func(ctx context.Context) error { return db.PG.Ping(ctx) }
		}
		if db.Redis != nil && db.Redis.Preferences != nil {
			hs.critical["redis_preferences"] = func(ctx context.Context) error { return db.Redis.Preferences.Ping(ctx).Err() }
		}
		if db.Redis != nil && db.Redis.Cache != nil {
			hs.optional["redis_cache"] = func(ctx context.Context) error { return db.Redis.Cache.Ping(ctx).Err() }
		}
		if db.Neo4j != nil {
			hs.optional["neo4j"] = func(ctx context.Context) error { return db.Neo4j.VerifyConnectivity(ctx) }
		}
	}

	hs.healthCheckStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"})

	hs.lastHealthCheck = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"})

	// Register metrics with error handling - ignore if already registered
	for name, collector := range map[string]prometheus.Collector{
		"health_check_status":    hs.healthCheckStatus,
		"health_check_timestamp": hs.lastHealthCheck,
	} {
		if err := registry.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				logger.WithError(err).Warnf("Failed to register %s metric", name)
			}
		}
	}

	return hs
}

// AddCheck registers an extra dependency check.
func (s *HealthService) AddCheck(name string, critical bool, check func(context.Context) error) {
	if critical {
		s.critical[name] = check
		return
	}
	s.optional[name] = check
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	allCriticalHealthy := true
	for name, check := range s.critical {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
		}
	}

	for name, check := range s.optional {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}

func (s *HealthService) run(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return check(ctx)
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
