package manager

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/testutil"
)

// lifecycleSuite runs a full table lifecycle against the engine configured
// in KEEPICE_INTEGRATION_CONFIG.
type lifecycleSuite struct {
	testutil.IntegrationTestSuite

	factory  *Factory
	manager  *TableManager
	database string
	table    string
}

func TestLifecycleIntegration(t *testing.T) {
	suite.Run(t, new(lifecycleSuite))
}

func (s *lifecycleSuite) SetupSuite() {
	s.IntegrationTestSuite.SetupSuite()

	f, err := NewFactory(WithConfigPath(s.ConfigPath()))
	s.Require().NoError(err)
	s.factory = f

	tm, err := f.GetManager(s.Context(), s.Connector())
	s.Require().NoError(err)
	s.manager = tm

	s.database = "keepice_it"
	s.table = fmt.Sprintf("orders_%d", time.Now().UnixNano())
}

func (s *lifecycleSuite) TearDownSuite() {
	if s.manager != nil {
		_ = s.manager.DropTable(s.Context(), s.database, s.table)
	}
	if s.factory != nil {
		s.Require().NoError(s.factory.Close())
	}
	s.IntegrationTestSuite.TearDownSuite()
}

func (s *lifecycleSuite) TestTableLifecycle() {
	ctx := s.Context()
	s.Require().NoError(s.manager.CreateDatabase(ctx, s.database))

	dbs, err := s.manager.ListDatabases(ctx)
	s.Require().NoError(err)
	s.NotZero(dbs.Len())

	columns := []core.Column{
		{Name: "id", Type: "bigint"},
		{Name: "amount", Type: "double"},
		{Name: "day", Type: "date"},
	}
	s.Require().NoError(s.manager.CreateTable(ctx, s.database, s.table, columns,
		"s3://keepice-it/"+s.table, WithPartitionColumn("day")))

	tables, err := s.manager.ListTables(ctx, s.database)
	s.Require().NoError(err)
	s.NotZero(tables.Len())

	_, err = s.manager.GetTableDDL(ctx, s.database, s.table)
	s.Require().NoError(err)
}
