package command

import "errors"

// ErrBusy is returned when a directive is rejected because an activity
// holds the actuators and nothing more can be queued.
var ErrBusy = errors.New("device busy")
