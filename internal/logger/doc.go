// Package logger is the zap setup shared by alarm-server and alarm-ctl.
//
// Loggers travel in contexts: WithName narrows the component
// ("alarm-server.scheduler") and WithAlarm pins the alarm being handled, so
// callback output and scheduler output for one alarm share the same fields.
// The shared level follows log_level from the settings via SetLevel.
package logger
