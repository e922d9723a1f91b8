// Package optimizer searches for the gross income that yields a requested net income.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/format"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
	"github.com/iwvelando/pfa-tax-calculator/pkg/optimization"
	"go.uber.org/zap"
)

// netSlack absorbs float noise when comparing a computed net with the target.
const netSlack = 1e-9

// maxExactBani is the largest count of bani a float64 holds exactly.
const maxExactBani = 1 << 53

// Config controls the bisection.
type Config struct {
	Tolerance     float64 // stop once the gross bracket is this narrow
	MaxIterations int
}

// DefaultConfig returns the solver defaults from pkg/constants.
func DefaultConfig() Config {
	return Config{
		Tolerance:     constants.DefaultSolverTolerance,
		MaxIterations: constants.DefaultSolverMaxIterations,
	}
}

// Runner solves gross-for-net searches against one calculator.
type Runner struct {
	logger    *zap.Logger
	calc      *tax.Calculator
	formatter *format.Formatter
	cfg       Config
}

// NewRunner constructs a Runner. formatter may be nil, in which case the
// display fields of the summary are left empty.
func NewRunner(logger *zap.Logger, calc *tax.Calculator, formatter *format.Formatter, cfg Config) (*Runner, error) {
	if calc == nil {
		return nil, fmt.Errorf("calculator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !(cfg.Tolerance > 0) || !mathutil.IsFinite(cfg.Tolerance) {
		return nil, fmt.Errorf("optimizer tolerance must be positive, got %v", cfg.Tolerance)
	}
	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("optimizer max iterations must be positive, got %d", cfg.MaxIterations)
	}
	return &Runner{logger: logger, calc: calc, formatter: formatter, cfg: cfg}, nil
}

// GrossForNet returns the smallest monthly gross income, to the ban, whose
// net income reaches targetNet. A target that no gross income can reach
// yields a summary with Converged set to false rather than an error.
func (r *Runner) GrossForNet(targetNet float64) (optimization.Summary, error) {
	if !mathutil.IsFinite(targetNet) {
		return optimization.Summary{}, apperrors.NewInvalidInput("target net income", targetNet, "must be a finite number")
	}
	if targetNet < 0 {
		return optimization.Summary{}, apperrors.NewInvalidInput("target net income", targetNet, "must not be negative")
	}

	summary := optimization.Summary{TargetNet: targetNet}
	if targetNet == 0 {
		summary.Converged = true
		return r.finish(summary)
	}

	upper := targetNet
	upperNet, err := r.net(upper)
	if err != nil {
		return optimization.Summary{}, err
	}
	for doublings := 0; upperNet < targetNet-netSlack; doublings++ {
		if doublings >= constants.MaxSolverBoundDoublings || math.IsInf(upper*2, 0) {
			summary.Net = upperNet
			summary.Headroom = upperNet - targetNet
			summary.Notes = []string{fmt.Sprintf(
				"net income never reaches %.2f with the configured contribution rates", targetNet)}
			return r.finish(summary)
		}
		upper *= 2
		if upperNet, err = r.net(upper); err != nil {
			return optimization.Summary{}, err
		}
	}

	lower := 0.0
	iterations := 0
	// exhausted is set when the bracket can no longer shrink because lower
	// and upper are adjacent floats, which is as converged as float64 allows.
	exhausted := false
	for iterations < r.cfg.MaxIterations && upper-lower > r.cfg.Tolerance {
		mid := lower + (upper-lower)/2
		midNet, err := r.net(mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if midNet >= targetNet-netSlack {
			if mid == upper {
				exhausted = true
				break
			}
			upper = mid
		} else {
			if mid == lower {
				exhausted = true
				break
			}
			lower = mid
		}
	}

	// Snap to whole bani without dropping below the target. Beyond
	// maxExactBani floats are already coarser than a ban.
	gross := upper
	snapped := upper*constants.DecimalPrecision < maxExactBani
	if snapped {
		gross = mathutil.Round(upper)
	}
	net, err := r.net(gross)
	if err != nil {
		return optimization.Summary{}, err
	}
	if snapped && net < targetNet-netSlack {
		gross = mathutil.Round(gross + 1/float64(constants.DecimalPrecision))
		if net, err = r.net(gross); err != nil {
			return optimization.Summary{}, err
		}
	}

	summary.Gross = gross
	summary.Net = net
	summary.Headroom = net - targetNet
	summary.Iterations = iterations
	summary.Converged = exhausted || upper-lower <= r.cfg.Tolerance
	if !summary.Converged {
		summary.Notes = []string{fmt.Sprintf("stopped after %d iterations with a bracket of %.4f", iterations, upper-lower)}
	}
	return r.finish(summary)
}

func (r *Runner) net(gross float64) (float64, error) {
	b, err := tax.ComputeBreakdown(gross, r.calc.Configuration())
	if err != nil {
		return 0, err
	}
	return b.Net, nil
}

func (r *Runner) finish(summary optimization.Summary) (optimization.Summary, error) {
	if r.formatter != nil {
		currency := r.calc.Configuration().BaseCurrency
		var err error
		if summary.TargetDisplay, err = r.formatter.Money(summary.TargetNet, currency); err != nil {
			return optimization.Summary{}, err
		}
		if summary.GrossDisplay, err = r.formatter.Money(summary.Gross, currency); err != nil {
			return optimization.Summary{}, err
		}
	}

	r.logger.Debug("optimizer solved gross for net",
		zap.String("op", "optimizer.GrossForNet"),
		zap.Float64("targetNet", summary.TargetNet),
		zap.Float64("gross", summary.Gross),
		zap.Float64("net", summary.Net),
		zap.Float64("headroom", summary.Headroom),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}
