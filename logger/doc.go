// Package logger provides structured logging for minutes using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying structured fields such as the session
// and speaker being processed.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("capture")
//	log.Info("capture started", logger.Fields(logger.FieldSpeakerID, id))
package logger
