package grpc

import (
	"context"
	"fmt"
	"time"

	"rso-client/circuitbreaker"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

const ServiceName = "arena.Authority"

// NotServingError means the authority answered the probe but is not
// accepting players.
type NotServingError struct {
	Status healthpb.HealthCheckResponse_ServingStatus
}

func (e NotServingError) Error() string {
	return fmt.Sprintf("authority is %s", e.Status)
}

// CheckAuthority asks the authority's health service whether it is serving
// before the client opens a session.
func CheckAuthority(ctx context.Context, address string, service string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to health service: %v", err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	req := &healthpb.HealthCheckRequest{Service: service}

	resp, err := circuitbreaker.HealthBreaker.Execute(func() (*healthpb.HealthCheckResponse, error) {
		return client.Check(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("failed to check authority health: %w", err)
	}

	log.WithField("address", address).Debug("Health check: ", protojson.Format(resp))

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return NotServingError{Status: resp.GetStatus()}
	}

	return nil
}
