// Package gateway serves POST /process-fingerprint: upload in, flipped and
// enhanced JPEG out, base64-encoded in a JSON envelope.
package gateway

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/high-horse/fingerprint-gateway/internal/config"
	"github.com/high-horse/fingerprint-gateway/internal/enhance"
)

// Options configures New. An empty AllowOrigins uses config.DefaultAllowOrigins.
type Options struct {
	Enhancer     enhance.Enhancer
	Logger       *zap.Logger
	AccessLog    io.Writer
	AllowOrigins []string
	BodyLimit    int
	JPEGQuality  int
	MaxPixels    int
}

// New builds the fiber app with its middleware and routes.
func New(opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = config.DefaultAllowOrigins
	}

	app := fiber.New(fiber.Config{
		AppName:               "fingerprint-gateway",
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(fiberrecover.New())
	accessLog := fiberlogger.Config{}
	if opts.AccessLog != nil {
		accessLog.Output = opts.AccessLog
	}
	app.Use(fiberlogger.New(accessLog))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodHead,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
			fiber.MethodOptions,
		}, ","),
		AllowCredentials: true,
	}))

	h := NewHandler(NewProcessor(opts.Enhancer, opts.JPEGQuality, opts.MaxPixels, logger), logger)
	app.Get("/health", h.Health)
	app.Post("/process-fingerprint", h.ProcessFingerprint)

	return app
}
