package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every roll leaves a debug trace.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Source exposes the underlying randomness provider.
func (r *Roller) Source() Source { return r.src }

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Pick returns a uniformly chosen index in [0, n) and logs the choice.
//
// Precondition: n > 0.
func (r *Roller) Pick(what string, n int) int {
	i := Pick(r.src, n)
	r.logger.Debug("random pick", zap.String("what", what), zap.Int("of", n), zap.Int("index", i))
	return i
}
