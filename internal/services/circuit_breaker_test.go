package services

import (
	"testing"
	"time"

	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type CircuitBreakerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	metrics *service_mocks.MockMetricsRecorderInterface
	now     time.Time
	breaker *CircuitBreaker
}

func (s *CircuitBreakerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.breaker = NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "ollama",
		MaxFailures:  3,
		ResetTimeout: time.Minute,
	}, s.metrics)
	s.breaker.now = func() time.Time { return s.now }
}

func (s *CircuitBreakerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCircuitBreakerSuite(t *testing.T) {
	suite.Run(t, new(CircuitBreakerTestSuite))
}

func (s *CircuitBreakerTestSuite) expectState(state float64) {
	s.metrics.EXPECT().RecordGauge("circuit_breaker_state", state, map[string]string{"service": "ollama"})
}

func (s *CircuitBreakerTestSuite) TestTripsAfterMaxFailures() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.False(s.breaker.IsOpen())
	s.Equal(2, s.breaker.GetFailureCount())

	s.expectState(float64(StateOpen))
	s.breaker.RecordFailure()
	s.True(s.breaker.IsOpen())
	s.Equal(StateOpen, s.breaker.GetState())
}

func (s *CircuitBreakerTestSuite) TestSuccessResetsFailures() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.breaker.RecordSuccess()
	s.Equal(0, s.breaker.GetFailureCount())
	s.Equal(StateClosed, s.breaker.GetState())
}

func (s *CircuitBreakerTestSuite) TestHalfOpenAfterTimeout() {
	s.expectState(float64(StateOpen))
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}

	s.now = s.now.Add(30 * time.Second)
	s.True(s.breaker.IsOpen())

	s.expectState(float64(StateHalfOpen))
	s.now = s.now.Add(31 * time.Second)
	s.False(s.breaker.IsOpen())
	s.Equal(StateHalfOpen, s.breaker.GetState())

	s.expectState(float64(StateClosed))
	s.breaker.RecordSuccess()
	s.Equal(StateClosed, s.breaker.GetState())
	s.Equal(0, s.breaker.GetFailureCount())
}

func (s *CircuitBreakerTestSuite) TestHalfOpenFailureReopens() {
	s.expectState(float64(StateOpen))
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}

	s.expectState(float64(StateHalfOpen))
	s.now = s.now.Add(2 * time.Minute)
	s.False(s.breaker.IsOpen())

	s.expectState(float64(StateOpen))
	s.breaker.RecordFailure()
	s.True(s.breaker.IsOpen())
}

func (s *CircuitBreakerTestSuite) TestReset() {
	s.expectState(float64(StateOpen))
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}

	s.expectState(float64(StateClosed))
	s.breaker.Reset()
	s.False(s.breaker.IsOpen())
	s.Equal(0, s.breaker.GetFailureCount())
}

func (s *CircuitBreakerTestSuite) TestNilMetrics() {
	breaker := NewCircuitBreaker(DefaultCircuitBreakerConfig("gemini"), nil)
	for i := 0; i < 5; i++ {
		breaker.RecordFailure()
	}
	s.True(breaker.IsOpen())
}
