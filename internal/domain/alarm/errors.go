package alarm

import "errors"

// ErrUnknownAlarm is returned when an alarm id does not match a tracked alarm.
var ErrUnknownAlarm = errors.New("unknown alarm")
