// Package config loads the panelfill command configuration using Viper. Values are read
// from an optional YAML, TOML or JSON file and can be overridden by PANELFILL_ prefixed
// environment variables, e.g. PANELFILL_OUTPUT_PATH.
package config

import (
	"strings"
	"unicode/utf8"

	panelfill "github.com/aouyang1/go-panelfill"
	"github.com/aouyang1/go-panelfill/fetch"
	"github.com/aouyang1/go-panelfill/sink"
	"github.com/aouyang1/go-panelfill/source"
	"github.com/aouyang1/go-panelfill/timedataset"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const EnvPrefix = "PANELFILL"

var (
	ErrInvalidComma  = errors.New("comma must be a single character")
	ErrUnknownFormat = errors.New("unknown source format")
)

// Config is the full command configuration.
type Config struct {
	Grid         []int         `mapstructure:"grid"`
	Census       []int         `mapstructure:"census"`
	Columns      ColumnsConfig `mapstructure:"columns"`
	Source       SourceConfig  `mapstructure:"source"`
	Output       OutputConfig  `mapstructure:"output"`
	Parallelism  int           `mapstructure:"parallelism"`
	SortByEntity bool          `mapstructure:"sort_by_entity"`
}

// Column maps a raw header onto a canonical column name.
type Column struct {
	Raw  string `mapstructure:"raw"`
	Name string `mapstructure:"name"`
}

// ColumnsConfig describes the raw export layout. Identity and indicator columns keep
// the configured order in the output.
type ColumnsConfig struct {
	Entity      string   `mapstructure:"entity"`
	Year        string   `mapstructure:"year"`
	EntityWidth int      `mapstructure:"entity_width"`
	Comma       string   `mapstructure:"comma"`
	Identity    []Column `mapstructure:"identity"`
	Indicators  []Column `mapstructure:"indicators"`
}

// SourceConfig locates the raw export.
type SourceConfig struct {
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
	// Format is csv or xlsx. Empty infers it from the path extension.
	Format string `mapstructure:"format"`
	Sheet  string `mapstructure:"sheet"`
}

// OutputConfig locates the reconstructed panel.
type OutputConfig struct {
	Path         string `mapstructure:"path"`
	EntityColumn string `mapstructure:"entity_column"`
	YearColumn   string `mapstructure:"year_column"`
	IncludeFills bool   `mapstructure:"include_fills"`
}

func columns(m map[string]string, order []string) []map[string]string {
	out := make([]map[string]string, 0, len(order))
	for _, raw := range order {
		out = append(out, map[string]string{"raw": raw, "name": m[raw]})
	}
	return out
}

// SetDefaults configures the Atlas do Desenvolvimento Humano panel.
func SetDefaults(v *viper.Viper) {
	atlas := source.NewAtlasSchema()

	v.SetDefault("grid", panelfill.DefaultYears)
	v.SetDefault("census", atlas.CensusYears)

	v.SetDefault("columns.entity", atlas.EntityColumn)
	v.SetDefault("columns.year", atlas.YearColumn)
	v.SetDefault("columns.entity_width", atlas.EntityWidth)
	v.SetDefault("columns.comma", string(atlas.Comma))
	v.SetDefault("columns.identity", columns(atlas.Identity, []string{"Município", "UF"}))
	v.SetDefault("columns.indicators", columns(atlas.Indicators, []string{
		"IDHM", "IDHM_R", "IDHM_E", "IDHM_L", "RDPC", "ESPVIDA", "T_ANALF15M",
	}))

	v.SetDefault("source.url", fetch.AtlasURL)
	v.SetDefault("source.path", "data/raw/atlas/atlas_raw.csv")
	v.SetDefault("source.format", "")
	v.SetDefault("source.sheet", "")

	v.SetDefault("output.path", "data/processed/atlas_idhm_final.csv")
	v.SetDefault("output.entity_column", sink.DefaultEntityColumn)
	v.SetDefault("output.year_column", sink.DefaultYearColumn)
	v.SetDefault("output.include_fills", false)

	v.SetDefault("parallelism", 0)
	v.SetDefault("sort_by_entity", false)
}

// New returns a Viper instance with defaults and environment overrides bound. A non
// empty path is read as the config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return v, nil
}

// Load reads the configuration from path, or from defaults and environment only when
// path is empty.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be checked by the library options.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Columns.Comma) != 1 {
		return errors.Wrapf(ErrInvalidComma, "%q", c.Columns.Comma)
	}
	if _, err := c.SourceFormat(); err != nil {
		return err
	}
	return nil
}

// SourceFormat returns the configured source format or the one implied by the path.
func (c *Config) SourceFormat() (string, error) {
	format := strings.ToLower(c.Source.Format)
	if format == "" {
		switch {
		case strings.HasSuffix(strings.ToLower(c.Source.Path), ".xlsx"):
			format = "xlsx"
		default:
			format = "csv"
		}
	}
	switch format {
	case "csv", "xlsx":
		return format, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", c.Source.Format)
}

// Options returns the reconstruction options.
func (c *Config) Options(logger *zap.Logger) *panelfill.Options {
	s := timedataset.Schema{
		Identity:   make([]string, 0, len(c.Columns.Identity)),
		Indicators: make([]string, 0, len(c.Columns.Indicators)),
	}
	for _, col := range c.Columns.Identity {
		s.Identity = append(s.Identity, col.Name)
	}
	for _, col := range c.Columns.Indicators {
		s.Indicators = append(s.Indicators, col.Name)
	}
	return &panelfill.Options{
		Years:           append([]int(nil), c.Grid...),
		Schema:          s,
		Parallelization: c.Parallelism,
		SortByEntity:    c.SortByEntity,
		Logger:          logger,
	}
}

// SourceSchema returns the raw export layout.
func (c *Config) SourceSchema() *source.Schema {
	s := &source.Schema{
		EntityColumn: c.Columns.Entity,
		YearColumn:   c.Columns.Year,
		Identity:     make(map[string]string, len(c.Columns.Identity)),
		Indicators:   make(map[string]string, len(c.Columns.Indicators)),
		EntityWidth:  c.Columns.EntityWidth,
		CensusYears:  append([]int(nil), c.Census...),
	}
	if r, _ := utf8.DecodeRuneInString(c.Columns.Comma); r != utf8.RuneError {
		s.Comma = r
	}
	for _, col := range c.Columns.Identity {
		s.Identity[col.Raw] = col.Name
	}
	for _, col := range c.Columns.Indicators {
		s.Indicators[col.Raw] = col.Name
	}
	return s
}

// SinkOptions returns the output column layout.
func (c *Config) SinkOptions() *sink.Options {
	return &sink.Options{
		EntityColumn: c.Output.EntityColumn,
		YearColumn:   c.Output.YearColumn,
		IncludeFills: c.Output.IncludeFills,
	}
}
