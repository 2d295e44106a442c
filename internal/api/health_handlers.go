package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/sync/errgroup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	healthCheckTimeout = 2 * time.Second
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Probes the database and the search index",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth is the result of one probe.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Time the probe took"`
	Message string `json:"message,omitempty" doc:"Probe error, if any"`
}

// HealthResponse is unhealthy when any component is.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"healthy or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Result per probe"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// handleHealthCheck runs the probes concurrently, each under its own timeout.
// A failing probe marks the response unhealthy but never fails the request.
func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{
		Status:     statusHealthy,
		Components: make(map[string]ComponentHealth, len(s.opts.HealthChecks)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range s.opts.HealthChecks {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, healthCheckTimeout)
			defer cancel()

			start := time.Now()
			result := ComponentHealth{Status: statusHealthy}
			if err := check.Check(probeCtx); err != nil {
				result.Status = statusUnhealthy
				result.Message = err.Error()
			}
			result.Latency = time.Since(start).String()

			mu.Lock()
			defer mu.Unlock()
			resp.Components[check.Name] = result
			if result.Status == statusUnhealthy {
				resp.Status = statusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	return &HealthOutput{Body: resp}, nil
}
