// Package athena implements the keepice connector for Amazon Athena.
//
// Statements are submitted with StartQueryExecution, polled with
// GetQueryExecution until they reach a terminal state and read back page
// by page with GetQueryResults.
package athena

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/base"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

// API is the subset of the Athena client the connector uses
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
	StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error)
}

// ClientFactory builds the Athena client when the connector connects
type ClientFactory func(ctx context.Context, cfg config.AthenaConfig) (API, error)

// Connector runs SQL on Athena
type Connector struct {
	*base.BaseConnector

	cfg       config.AthenaConfig
	newClient ClientFactory
	client    API
	log       *zap.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithClientFactory replaces the AWS client construction
func WithClientFactory(f ClientFactory) Option {
	return func(c *Connector) {
		c.newClient = f
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Connector) {
		c.log = l
	}
}

// New creates an Athena connector from a validated config section
func New(cfg *config.AthenaConfig, opts ...Option) (*Connector, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "athena configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Connector{
		cfg:       *cfg,
		newClient: defaultClient,
	}
	if c.cfg.CatalogName == "" {
		c.cfg.CatalogName = config.DefaultAthenaCatalog
	}
	if c.cfg.PollInterval <= 0 {
		c.cfg.PollInterval = config.DefaultPollInterval
	}
	for _, opt := range opts {
		opt(c)
	}
	c.BaseConnector = base.NewBaseConnector(core.TypeAthena, c.cfg.CatalogName, c.log)
	return c, nil
}

func defaultClient(ctx context.Context, cfg config.AthenaConfig) (API, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.RegionName))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS config")
	}
	return athena.NewFromConfig(awsCfg), nil
}

// Connect builds the Athena client. The client is the session handle.
func (c *Connector) Connect(ctx context.Context) (any, error) {
	return c.ConnectOnce(ctx, func(ctx context.Context) (any, error) {
		client, err := c.newClient(ctx, c.cfg)
		if err != nil {
			return nil, err
		}
		c.client = client
		return client, nil
	})
}

// Query submits sql, waits for it to finish and returns every result row.
func (c *Connector) Query(ctx context.Context, sql string) (*core.Result, error) {
	if err := c.RequireConnected(); err != nil {
		return nil, err
	}

	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		WorkGroup:   aws.String(c.cfg.Workgroup),
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(c.cfg.S3StagingDir),
		},
	}
	if c.cfg.IcebergCatalog != "" {
		input.QueryExecutionContext = &types.QueryExecutionContext{
			Catalog: aws.String(c.cfg.IcebergCatalog),
		}
	}

	started, err := c.client.StartQueryExecution(ctx, input)
	if err != nil {
		return nil, err
	}
	id := aws.ToString(started.QueryExecutionId)
	c.Logger().Debug("athena query started",
		zap.String("query_execution_id", id),
		zap.String("workgroup", c.cfg.Workgroup))

	execution, err := c.wait(ctx, id)
	if err != nil {
		return nil, err
	}

	return c.fetch(ctx, id, execution.StatementType == types.StatementTypeDml)
}

// wait polls until the execution reaches a terminal state. A cancelled
// context stops the query on the Athena side as well.
func (c *Connector) wait(ctx context.Context, id string) (*types.QueryExecution, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		out, err := c.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		if err != nil {
			return nil, err
		}

		execution := out.QueryExecution
		if execution != nil && execution.Status != nil {
			switch state := execution.Status.State; state {
			case types.QueryExecutionStateSucceeded:
				return execution, nil
			case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
				reason := aws.ToString(execution.Status.StateChangeReason)
				if execution.Status.AthenaError != nil && execution.Status.AthenaError.ErrorMessage != nil && reason == "" {
					reason = aws.ToString(execution.Status.AthenaError.ErrorMessage)
				}
				return nil, errors.Newf(errors.ErrorTypeQuery, "query %s %s: %s", id, strings.ToLower(string(state)), reason).
					WithDetail("query_execution_id", id)
			}
		}

		select {
		case <-ctx.Done():
			c.stop(id)
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Connector) stop(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.client.StopQueryExecution(ctx, &athena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(id),
	}); err != nil {
		c.Logger().Warn("failed to stop athena query", zap.String("query_execution_id", id), zap.Error(err))
	}
}

// fetch pages through the results. For DML statements Athena repeats the
// column names as the first row, which is dropped.
func (c *Connector) fetch(ctx context.Context, id string, skipHeader bool) (*core.Result, error) {
	result := &core.Result{QueryID: id, Columns: []string{}, Rows: [][]any{}}

	paginator := athena.NewGetQueryResultsPaginator(c.client, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	})

	first := true
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if page.ResultSet == nil {
			continue
		}

		if len(result.Columns) == 0 && page.ResultSet.ResultSetMetadata != nil {
			for _, info := range page.ResultSet.ResultSetMetadata.ColumnInfo {
				result.Columns = append(result.Columns, aws.ToString(info.Name))
			}
		}

		for _, row := range page.ResultSet.Rows {
			if first {
				first = false
				if skipHeader {
					continue
				}
			}
			values := make([]any, len(row.Data))
			for i, datum := range row.Data {
				if datum.VarCharValue != nil {
					values[i] = *datum.VarCharValue
				}
			}
			result.Rows = append(result.Rows, values)
		}
	}

	return result, nil
}

// Close is a no-op. Athena keeps no session open and the client stays
// usable by every manager sharing the connector.
func (c *Connector) Close() error {
	return nil
}

// Verify interface compliance.
var _ core.Connector = (*Connector)(nil)
