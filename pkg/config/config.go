package config

import (
	"time"

	"github.com/ajitpratap0/keepice/pkg/errors"
)

const (
	// DefaultAthenaCatalog is the Glue data catalog Athena queries by default
	DefaultAthenaCatalog = "awsdatacatalog"
	// DefaultPollInterval is how often Athena query state is checked
	DefaultPollInterval = 500 * time.Millisecond
)

// Config is the root of connectors_config.yaml
type Config struct {
	Connectors *ConnectorsConfig `yaml:"connectors" json:"connectors"`
}

// ConnectorsConfig holds one optional section per connector type
type ConnectorsConfig struct {
	SparkIceberg *SparkIcebergConfig `yaml:"spark_iceberg" json:"spark_iceberg,omitempty"`
	Athena       *AthenaConfig       `yaml:"athena" json:"athena,omitempty"`
	PyIceberg    *PyIcebergConfig    `yaml:"pyiceberg" json:"pyiceberg,omitempty"`
}

// SparkIcebergConfig configures the Spark Connect session
type SparkIcebergConfig struct {
	// AppName is reported to the Spark Connect server as the user agent
	AppName string `yaml:"app_name" json:"app_name"`
	// Master is the Spark Connect endpoint, e.g. sc://localhost:15002
	Master string `yaml:"master" json:"master"`
	// Config entries are applied to the session with SET key=value
	Config map[string]string `yaml:"config" json:"config"`
	// CatalogName qualifies every table reference
	CatalogName string `yaml:"catalog_name" json:"catalog_name"`
}

// AthenaConfig configures the Athena client
type AthenaConfig struct {
	RegionName   string `yaml:"region_name" json:"region_name"`
	S3StagingDir string `yaml:"s3_staging_dir" json:"s3_staging_dir"`
	Workgroup    string `yaml:"workgroup" json:"workgroup"`
	// IcebergCatalog overrides the data catalog in the query execution context
	IcebergCatalog string `yaml:"iceberg_catalog" json:"iceberg_catalog,omitempty"`
	Warehouse      string `yaml:"warehouse" json:"warehouse,omitempty"`
	CatalogName    string `yaml:"catalog_name" json:"catalog_name"`
	// PollInterval between GetQueryExecution calls
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// PyIcebergConfig configures the native Iceberg REST catalog
type PyIcebergConfig struct {
	CatalogName string `yaml:"catalog_name" json:"catalog_name"`
	Warehouse   string `yaml:"warehouse" json:"warehouse"`
	URI         string `yaml:"uri" json:"uri"`
	// Properties are passed to the catalog as-is (credentials, io-impl, ...)
	Properties map[string]string `yaml:"properties" json:"properties,omitempty"`
}

// ApplyDefaults fills optional fields that have a default value
func (c *Config) ApplyDefaults() {
	if c.Connectors == nil {
		return
	}
	if a := c.Connectors.Athena; a != nil {
		if a.CatalogName == "" {
			a.CatalogName = DefaultAthenaCatalog
		}
		if a.PollInterval <= 0 {
			a.PollInterval = DefaultPollInterval
		}
	}
	if s := c.Connectors.SparkIceberg; s != nil && s.Config == nil {
		s.Config = map[string]string{}
	}
}

// Validate checks that the connectors section exists and that every
// declared section carries its required fields.
func (c *Config) Validate() error {
	if c.Connectors == nil {
		return errors.New(errors.ErrorTypeConfig, "connectors section is required")
	}
	if s := c.Connectors.SparkIceberg; s != nil {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if a := c.Connectors.Athena; a != nil {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	if p := c.Connectors.PyIceberg; p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the required Spark fields
func (s *SparkIcebergConfig) Validate() error {
	return requireFields("spark_iceberg", map[string]string{
		"app_name":     s.AppName,
		"master":       s.Master,
		"catalog_name": s.CatalogName,
	}, "app_name", "master", "catalog_name")
}

// Validate checks the required Athena fields
func (a *AthenaConfig) Validate() error {
	return requireFields("athena", map[string]string{
		"region_name":    a.RegionName,
		"s3_staging_dir": a.S3StagingDir,
		"workgroup":      a.Workgroup,
	}, "region_name", "s3_staging_dir", "workgroup")
}

// Validate checks the required catalog fields
func (p *PyIcebergConfig) Validate() error {
	return requireFields("pyiceberg", map[string]string{
		"catalog_name": p.CatalogName,
		"warehouse":    p.Warehouse,
		"uri":          p.URI,
	}, "catalog_name", "warehouse", "uri")
}

// requireFields walks order so the reported field is deterministic
func requireFields(section string, values map[string]string, order ...string) error {
	for _, field := range order {
		if values[field] == "" {
			return errors.Newf(errors.ErrorTypeConfig, "%s.%s is required", section, field).
				WithDetail("section", section).
				WithDetail("field", field)
		}
	}
	return nil
}
