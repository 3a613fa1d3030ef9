// Package filestore is a directory-backed HealthStore.
//
// It stands in for the platform health database so the sync pipeline can
// run end to end on a workstation. Layout:
//
//	<dir>/<data_type>.jsonl   one record per line, append-only
//	<dir>/profile.json        profile characteristics
//	<dir>/permissions.json    resources access was requested for
//	<dir>/deny                if present, authorization fails with its text
//
// Quantity data types hold QuantitySample lines; workout.jsonl holds
// Workout lines and sleep_analysis.jsonl holds Sleep lines. A data type's
// anchor is the number of lines already consumed.
package filestore
