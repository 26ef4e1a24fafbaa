package model

import "errors"

// Error kinds returned by the core. The core never recovers from any of
// these; all are surfaced to the caller unchanged.
var (
	// ErrInputMisalignment means the site series and tariff indices differ
	// in length or in their timestamps.
	ErrInputMisalignment = errors.New("input misalignment: site series and tariff indices differ")

	// ErrInvalidParameters means the battery or tariff values are
	// nonsensical (e.g. EnergyCapacityKWh <= 0, efficiency outside (0,1],
	// sell price above buy price).
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInfeasibleProblem means the solver could not find a feasible
	// dispatch under the given battery parameters.
	ErrInfeasibleProblem = errors.New("infeasible problem")

	// ErrNumericFailure means the solver returned an unknown or
	// numerically unreliable status.
	ErrNumericFailure = errors.New("numeric failure")

	// ErrIngestion means the meter CSV collaborator could not parse its
	// input. The core never raises this itself.
	ErrIngestion = errors.New("ingestion error")
)
