package db

import "errors"

// Error kinds shared by every store implementation. Callers match with
// errors.Is; the API layer maps them onto HTTP statuses.
var (
	// ErrNotFound means an ID did not resolve to an entity.
	ErrNotFound = errors.New("not found")

	// ErrUniqueness means a unique field (project/team name, email)
	// is already taken.
	ErrUniqueness = errors.New("already exists")

	// ErrInvariant means a structural rule would be broken: overlapping
	// plan periods, end before start, a project left without an admin.
	ErrInvariant = errors.New("invariant violation")

	// ErrMissingStartDate means a plan period was created without a
	// start date and the team has no prior period to derive one from.
	ErrMissingStartDate = errors.New("start date required")

	// ErrPermission means the caller's role set does not allow the
	// operation, or the target is outside the caller's project/team.
	ErrPermission = errors.New("permission denied")
)
