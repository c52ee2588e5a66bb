package pldm

import (
	stdlog "log"
	"log/syslog"
	"os"

	"github.com/op/go-logging"
)

// log is this package's logger, the same single-instance-per-package
// convention kryptco-kr uses (kryptco-kr/logging.go). Subpackages such as
// dispatch and transport create their own loggers the same way; they are
// not derived from this one.
var log = logging.MustGetLogger("pldm")

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{message}`,
)
var stderrFormat = logging.MustStringFormatter(
	`%{color}pldm ▶ %{message}%{color:reset}`,
)

// SetupLogging wires a syslog backend when available and falls back to a
// colored stderr backend otherwise, with the level controlled by
// PLDM_LOG_LEVEL. This is the engine-wide equivalent of kryptco-kr's
// SetupLogging, renamed from Kryptonite's KR_LOG_LEVEL.
func SetupLogging(prefix string, defaultLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		var err error
		backend, err = logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE)
		if err == nil {
			logging.SetFormatter(syslogFormat)
			if syslogBackend, ok := backend.(*logging.SyslogBackend); ok {
				stdlog.SetOutput(syslogBackend.Writer)
			}
		} else {
			backend = nil
		}
	}
	if backend == nil {
		backend = logging.NewLogBackend(os.Stderr, prefix, 0)
		logging.SetFormatter(stderrFormat)
	}
	leveled := logging.AddModuleLevel(backend)
	switch os.Getenv("PLDM_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, prefix)
	case "ERROR":
		leveled.SetLevel(logging.ERROR, prefix)
	case "WARNING":
		leveled.SetLevel(logging.WARNING, prefix)
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, prefix)
	case "INFO":
		leveled.SetLevel(logging.INFO, prefix)
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, prefix)
	default:
		leveled.SetLevel(defaultLevel, prefix)
	}
	logging.SetBackend(leveled)
	return log
}
