package shared

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_logger.go -package mocks fed_courier/shared ILogger

// ILogger is the logging surface used across the service; *log.Logger from charmbracelet/log satisfies it.
type ILogger interface {
	Error(msg interface{}, keyvals ...interface{})
	Errorf(format string, args ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Warnf(format string, args ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Infof(format string, args ...interface{})
	Debug(msg interface{}, keyvals ...interface{})
	Debugf(format string, args ...interface{})
	Printf(format string, args ...interface{})
}
