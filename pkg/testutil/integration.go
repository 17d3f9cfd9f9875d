package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// IntegrationConfigEnv names the variable holding the path of a
// connectors_config.yaml that points at real engines
const IntegrationConfigEnv = "KEEPICE_INTEGRATION_CONFIG"

// IntegrationConnectorEnv selects the connector integration tests run on
const IntegrationConnectorEnv = "KEEPICE_INTEGRATION_CONNECTOR"

// IntegrationTestSuite provides base functionality for integration tests
type IntegrationTestSuite struct {
	suite.Suite
	ctx        context.Context
	cancel     context.CancelFunc
	configPath string
	connector  string
	startTime  time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	IntegrationTest(s.T())

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Minute)
	s.startTime = time.Now()
	s.configPath = os.Getenv(IntegrationConfigEnv)
	s.connector = os.Getenv(IntegrationConnectorEnv)
	if s.connector == "" {
		s.connector = "spark_iceberg"
	}

	s.T().Logf("Integration test suite started on %s with %s", s.connector, s.configPath)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// ConfigPath returns the connectors configuration the suite runs against
func (s *IntegrationTestSuite) ConfigPath() string {
	return s.configPath
}

// Connector returns the connector name the suite runs against
func (s *IntegrationTestSuite) Connector() string {
	return s.connector
}

// IntegrationTest skips t unless an integration configuration is provided
// and the run is not -short.
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(IntegrationConfigEnv) == "" {
		t.Skipf("skipping integration test: %s is not set", IntegrationConfigEnv)
	}
}
