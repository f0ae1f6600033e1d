package apperrors

import "errors"

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrSessionActive     = errors.New("focus session is active")
	ErrDaemonNotRunning  = errors.New("focus daemon is not running")
	ErrDaemonStartFailed = errors.New("focus daemon start failed")
)
