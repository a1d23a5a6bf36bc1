// Package logfile manages the per-run log file that mirrors every scheduling decision.
package logfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Name returns the log filename for a run started at t, e.g. log-3-10-2024-1415.log
// (weekday, month, year, hour and minute).
func Name(t time.Time) string {
	return fmt.Sprintf("log-%d-%s.log", int(t.Weekday()), t.Format("01-2006-1504"))
}

// Archive renames an existing log file to log_<modtime>.log inside dir.
// Returns the archived path, or "" when there was nothing to archive.
func Archive(path, dir string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	archived := filepath.Join(dir, fmt.Sprintf("log_%s.log", info.ModTime().Format("2006-01-02_15-04-05")))
	if err := os.Rename(path, archived); err != nil {
		return "", err
	}
	return archived, nil
}

// Setup opens (creating dir if needed) the run's log file and points logrus at it.
// The returned closer should be closed on exit; closing it points logrus back
// at its previous output and formatter.
func Setup(dir string, now time.Time, archive bool) (string, io.Closer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, Name(now))
	if archive {
		if archived, err := Archive(path, dir); err != nil {
			return "", nil, err
		} else if archived != "" {
			log.Infof("Archived previous log to %s", archived)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", nil, err
	}
	std := log.StandardLogger()
	lf := &logFile{File: f, out: std.Out, formatter: std.Formatter}
	log.SetOutput(f)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05", DisableColors: true})
	return path, lf, nil
}

type logFile struct {
	*os.File
	out       io.Writer
	formatter log.Formatter
}

func (f *logFile) Close() error {
	log.SetOutput(f.out)
	log.SetFormatter(f.formatter)
	return f.File.Close()
}
