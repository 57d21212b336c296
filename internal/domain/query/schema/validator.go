package schema

import (
	"errors"

	"go.uber.org/zap"
)

// Validator is Check with a diagnostic log line on rejection.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a Validator. A nil logger disables diagnostics.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate reports whether doc satisfies the query schema. The error is
// non-nil only for *query.InvalidInputError.
func (v *Validator) Validate(doc any) (bool, error) {
	violations, err := v.Violations(doc)
	if err != nil {
		return false, err
	}
	return len(violations) == 0, nil
}

// Violations lists the constraints doc violates, nil when it is valid.
func (v *Validator) Violations(doc any) ([]string, error) {
	err := Check(doc)
	if err == nil {
		return nil, nil
	}
	var ve *ViolationError
	if errors.As(err, &ve) {
		violations := ve.Violations()
		v.logger.Warn("query rejected by schema",
			zap.Strings("violations", violations),
		)
		return violations, nil
	}
	return nil, err
}
