// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the scheduler admin API with per-call
// timeouts and conversion of responses into domain types.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
