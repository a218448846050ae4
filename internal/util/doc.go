// Package util provides small shared helpers for the middleware core.
//
// # Clock
//
// Components that reason about time windows take a Clock so tests can
// drive time explicitly:
//
//	clk := util.NewManualClock(time.Unix(0, 0))
//	clk.Advance(30 * time.Second)
//
// # Error Types
//
// ConfigError carries the configuration field that failed validation:
//
//	err := util.NewConfigError("rateLimit.default.max", "must be greater than zero")
//	errors.Is(err, util.ErrConfigInvalid) // true
package util
