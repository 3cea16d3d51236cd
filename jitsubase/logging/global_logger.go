package logging

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogsLayout = "2006-01-02 15:04:05"

	GlobalType = "global"
)

var ConfigErr string
var ConfigWarn string

type Config struct {
	FileName   string
	FileDir    string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

func (c Config) Validate() error {
	if c.FileName == "" {
		return errors.New("Logger file name can't be empty")
	}
	if c.FileDir == "" {
		return errors.New("Logger file dir can't be empty")
	}

	return nil
}

// NewRollingWriter returns a size-rotated file writer under Config.FileDir
func NewRollingWriter(config Config) (io.WriteCloser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := EnsureDir(config.FileDir); err != nil {
		return nil, fmt.Errorf("error creating logs dir %s: %w", config.FileDir, err)
	}
	if !IsDirWritable(config.FileDir) {
		return nil, fmt.Errorf("logs dir %s is not writable", config.FileDir)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(config.FileDir, config.FileName+".log"),
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

// InitGlobalLogger initializes main logger
func InitGlobalLogger(writer io.Writer, levelStr string) error {
	if writer != nil {
		log.SetOutput(writer)
	}
	level, err := log.ParseLevel(levelStr)
	if err == nil {
		log.SetLevel(level)
	} else {
		Error(err)
	}
	if ConfigErr != "" {
		Error(ConfigErr)
	}

	if ConfigWarn != "" {
		Warn(ConfigWarn)
	}
	return nil
}

func SetJsonFormatter() {
	log.SetFormatter(&log.JSONFormatter{})
}

func SetTextFormatter() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: LogsLayout,
	})
}

func SystemErrorf(format string, v ...any) {
	SystemError(fmt.Sprintf(format, v...))
}

func SystemError(v ...any) {
	msg := []any{"System error:"}
	msg = append(msg, v...)
	Error(msg...)
}

func Errorf(format string, v ...any) {
	log.Errorf(format, v...)
}

func Error(v ...any) {
	log.Errorln(v...)
}

func Infof(format string, v ...any) {
	log.Infof(format, v...)
}

func Info(v ...any) {
	log.Infoln(v...)
}

func Debugf(format string, v ...any) {
	log.Debugf(format, v...)
}

func Debug(v ...any) {
	log.Debug(v...)
}

func Warnf(format string, v ...any) {
	log.Warnf(format, v...)
}

func Warn(v ...any) {
	log.Warnln(v...)
}

func Fatal(v ...any) {
	log.Fatal(v...)
}

func Fatalf(format string, v ...any) {
	log.Fatalf(format, v...)
}
