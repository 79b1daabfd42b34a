package gateway

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const mimeCBOR = "application/cbor"

type Handler struct {
	processor *Processor
	logger    *zap.Logger
}

func NewHandler(processor *Processor, logger *zap.Logger) *Handler {
	return &Handler{processor: processor, logger: logger}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, HealthResponse{Status: "ok", Time: time.Now()})
}

func (h *Handler) ProcessFingerprint(c *fiber.Ctx) error {
	fh, err := c.FormFile(FileField)
	if err != nil {
		return badInput(err)
	}

	data, err := readUpload(fh)
	if err != nil {
		return unexpected(err)
	}

	encoded, err := h.processor.Process(c.UserContext(), data)
	if err != nil {
		return err
	}
	h.logger.Debug("fingerprint processed", zap.Int("upload_bytes", len(data)), zap.Int("response_chars", len(encoded)))

	return respond(c, fiber.StatusOK, ProcessResponse{ProcessedImage: encoded})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// errorHandler turns every handler error into a non-2xx envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := "Error occurred: " + err.Error()
		kind := KindUnexpected

		var gwErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &gwErr):
			code, detail, kind = gwErr.Status(), gwErr.Message, gwErr.Kind
		case errors.As(err, &fiberErr):
			code, detail = fiberErr.Code, fiberErr.Message
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Stringer("kind", kind),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		return respond(c, code, ProcessResponse{Detail: detail})
	}
}

// respond writes v as JSON, or as CBOR when the client prefers it.
func respond(c *fiber.Ctx, code int, v any) error {
	if c.Accepts(fiber.MIMEApplicationJSON, mimeCBOR) == mimeCBOR {
		body, err := cbor.Marshal(v)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, mimeCBOR)
		return c.Status(code).Send(body)
	}
	return c.Status(code).JSON(v)
}
