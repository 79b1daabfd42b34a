package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/high-horse/fingerprint-gateway/internal/config"
)

// Output returns the writer shared by the application and access logs:
// stdout, or a daily-rotated file when cfg.File is set.
func Output(cfg config.Log) (io.Writer, error) {
	if cfg.File == "" {
		return os.Stdout, nil
	}
	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithRotationTime(24 * time.Hour),
	}
	if age := cfg.MaxAge(); age > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(age))
	}
	w, err := rotatelogs.New(cfg.File+".%Y%m%d", opts...)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", cfg.File, err)
	}
	return w, nil
}

// New builds a JSON logger writing to w.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		lvl = parsed
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core, zap.AddCaller()), nil
}

// Setup wires Output and New together from configuration.
func Setup(cfg config.Log) (*zap.Logger, io.Writer, error) {
	w, err := Output(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger, err := New(cfg.Level, w)
	if err != nil {
		return nil, nil, err
	}
	return logger, w, nil
}
