package panelfill

import (
	"runtime"

	"github.com/aouyang1/go-panelfill/grid"
	"github.com/aouyang1/go-panelfill/timedataset"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var ErrNegativeParallelization = errors.New("parallelization must be non-negative")

var (
	// DefaultYears is the target year grid of the municipal human development panel.
	DefaultYears = []int{2000, 2005, 2010, 2015}

	// DefaultSchema lists the Atlas do Desenvolvimento Humano columns.
	DefaultSchema = timedataset.Schema{
		Identity: []string{"nome_municipio", "uf"},
		Indicators: []string{
			"idhm", "idhm_renda", "idhm_educ", "idhm_longevidade",
			"renda_pc", "esp_vida", "tx_analfabetismo",
		},
	}
)

// Options configures a panel reconstruction.
type Options struct {
	// Years is the target year grid every entity is realised on. Must be strictly increasing.
	Years []int `json:"years"`

	Schema timedataset.Schema `json:"schema"`

	// Parallelization sets how many entities are reconstructed concurrently. Zero uses
	// GOMAXPROCS.
	Parallelization int `json:"parallelization"`

	// SortByEntity orders the panel by entity id instead of first encounter order.
	SortByEntity bool `json:"sort_by_entity"`

	Logger *zap.Logger `json:"-"`
}

// NewDefaultOptions returns the options for the municipal human development panel.
func NewDefaultOptions() *Options {
	return &Options{
		Years: append([]int(nil), DefaultYears...),
		Schema: timedataset.Schema{
			Identity:   append([]string(nil), DefaultSchema.Identity...),
			Indicators: append([]string(nil), DefaultSchema.Indicators...),
		},
	}
}

// Validate checks the options, filling zero values with defaults, and returns the
// target year grid.
func (o *Options) Validate() (*Options, *grid.Grid, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	g, err := grid.New(o.Years...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid years")
	}
	if err := o.Schema.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid schema")
	}
	if o.Parallelization < 0 {
		return nil, nil, ErrNegativeParallelization
	}
	if o.Parallelization == 0 {
		o.Parallelization = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o, g, nil
}
