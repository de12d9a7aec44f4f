package types

// JSONMap is the opaque escape hatch for pass-through payload fields such as
// product snapshots and tracking metadata. Known keys are validated at the
// API boundary; everything else travels through untouched.
type JSONMap map[string]any
