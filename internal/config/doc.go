// Package config defines the settings shared by alarm-server and alarm-ctl
// and provides helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for optional fields and then checks struct tags
// with go-playground/validator.
package config
