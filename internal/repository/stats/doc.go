// Package stats persists scheduler Stats snapshots.
//
// The FileRepository stores the latest snapshot as JSON on disk, encoded with
// protojson from a structpb.Struct, so the file matches what the admin API
// returns for the same snapshot.
package stats
