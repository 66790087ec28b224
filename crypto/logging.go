package crypto

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LoggerHelper builds structured log entries with a fixed set of
// function/package fields. It writes to logrus' standard logger unless
// another logger is attached with WithLogger.
type LoggerHelper struct {
	function string
	logger   *logrus.Logger
	fields   logrus.Fields
}

// NewLogger creates a helper for the named function of this package.
func NewLogger(function string) *LoggerHelper {
	return NewPackageLogger("crypto", function)
}

// NewPackageLogger creates a helper for function inside pkg.
func NewPackageLogger(pkg, function string) *LoggerHelper {
	return &LoggerHelper{
		function: function,
		logger:   logrus.StandardLogger(),
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

// WithLogger routes the helper's output through logger. A nil logger keeps
// the current one.
func (l *LoggerHelper) WithLogger(logger *logrus.Logger) *LoggerHelper {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithField adds a custom field.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields.
func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError adds error information.
func (l *LoggerHelper) WithError(err error, errorType, operation string) *LoggerHelper {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	l.fields["error_type"] = errorType
	l.fields["operation"] = operation
	return l
}

// Fields returns a copy of the accumulated fields.
func (l *LoggerHelper) Fields() logrus.Fields {
	out := make(logrus.Fields, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	return out
}

// Debug logs a debug message.
func (l *LoggerHelper) Debug(message string) {
	l.logger.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *LoggerHelper) Info(message string) {
	l.logger.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *LoggerHelper) Warn(message string) {
	l.logger.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *LoggerHelper) Error(message string) {
	l.logger.WithFields(l.fields).Error(message)
}

// SecureFieldHash returns log fields with a short hex preview and the length
// of data. Only the first 8 bytes are ever included.
func SecureFieldHash(data []byte, name string) logrus.Fields {
	preview := "nil"
	if len(data) > 0 {
		previewLen := 8
		if len(data) < previewLen {
			previewLen = len(data)
		}
		preview = fmt.Sprintf("%x", data[:previewLen])
		if len(data) > previewLen {
			preview += "..."
		}
	}

	return logrus.Fields{
		name + "_preview": preview,
		name + "_size":    len(data),
	}
}
