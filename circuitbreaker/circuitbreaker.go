package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var HealthBreaker = newBreaker[*healthpb.HealthCheckResponse]("healthBreaker")
var NatsBreaker = newBreaker[interface{}]("natsBreaker")
var RedisBreaker = newBreaker[interface{}]("redisBreaker")

func onChange(name string, from gobreaker.State, to gobreaker.State) {
	if to == gobreaker.StateOpen {
		log.WithField("type", "breaker").Error(name + " breaker is open")
	} else if to == gobreaker.StateHalfOpen {
		log.WithField("type", "breaker").Warn(name + " breaker is half open")
	} else if to == gobreaker.StateClosed {
		log.WithField("type", "breaker").Info(name + " breaker is closed")
	}
}

func newBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          name,
		Timeout:       5 * time.Second,
		OnStateChange: onChange,
	})
}
