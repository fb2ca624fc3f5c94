package logutils

import (
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before InitLogger is called; it then logs at info level.
var Log = newLogger(logrus.InfoLevel)

func InitLogger(level string) {
	parsedLevel, err := parseLogLevel(level)
	Log = newLogger(parsedLevel)
	if err != nil {
		Log.WithError(err).Warnf("Invalid log level '%s', defaulting to 'info'", level)
	}
	Log.Infof("Log level set to %v", parsedLevel)
}

func newLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func parseLogLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return logrus.WarnLevel, nil
	case "":
		return logrus.InfoLevel, nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, err
	}
	return parsed, nil
}

// Redact hides everything but the last four characters of a secret.
func Redact(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-visible) + secret[len(secret)-visible:]
}

// RedactURL hides the user info of a URL such as a proxy address.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return Redact(raw)
	}
	if u.User == nil {
		return raw
	}
	u.User = url.User("xxxxx")
	return u.String()
}
