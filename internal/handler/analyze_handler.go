package handler

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/mobipent/internal/middleware"
	"github.com/mansoorceksport/mobipent/internal/service"
	"github.com/mansoorceksport/mobipent/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// AnalyzeHandler handles the /analyze endpoints
type AnalyzeHandler struct {
	maxUploadMB int64
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(maxUploadMB int64) *AnalyzeHandler {
	return &AnalyzeHandler{maxUploadMB: maxUploadMB}
}

// Tool handles POST /analyze/tool
func (h *AnalyzeHandler) Tool(c *fiber.Ctx) error {
	toolName := c.FormValue("tool_name")
	if toolName == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": []fiber.Map{{"loc": []string{"body", "tool_name"}, "msg": "field required"}},
		})
	}

	fileHeader, content, err := h.readFile(c)
	if fileHeader == nil {
		return err
	}

	log.Printf("[DevServer] Tool analysis: %s on %s for %s", toolName, fileHeader.Filename, middleware.GetAccountEmail(c))
	telemetry.AddSpanEvent(c, "analyze.tool",
		attribute.String("tool", toolName),
		attribute.Int("file.size", len(content)),
	)

	scan, err := service.OpenAPK(fileHeader.Filename, content)
	if err != nil {
		return c.JSON(fiber.Map{
			"tool_used": toolName,
			"file":      fileHeader.Filename,
			"result":    fiber.Map{"summary": []string{"APK extraction failed"}},
		})
	}

	return c.JSON(fiber.Map{
		"tool_used": toolName,
		"file":      fileHeader.Filename,
		"result":    scan.RunTool(toolName),
	})
}

// Comprehensive handles POST /analyze/comprehensive
func (h *AnalyzeHandler) Comprehensive(c *fiber.Ctx) error {
	fileHeader, content, err := h.readFile(c)
	if fileHeader == nil {
		return err
	}

	log.Printf("[DevServer] Comprehensive analysis: %s for %s", fileHeader.Filename, middleware.GetAccountEmail(c))
	telemetry.AddSpanEvent(c, "analyze.comprehensive", attribute.Int("file.size", len(content)))

	scan, err := service.OpenAPK(fileHeader.Filename, content)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to extract APK")
	}

	report := scan.Report()
	log.Printf("[DevServer] Analysis complete, risk level: %v", report["risk_assessment"].(map[string]any)["risk_level"])

	return c.JSON(fiber.Map{
		"analysis_type": "OWASP MASVS/MASTG Comprehensive",
		"file":          fileHeader.Filename,
		"report":        report,
	})
}

// readFile returns the "file" part and its content. On failure the header is nil
// and the returned error is whatever writing the error response produced.
func (h *AnalyzeHandler) readFile(c *fiber.Ctx) (*multipart.FileHeader, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": []fiber.Map{{"loc": []string{"body", "file"}, "msg": "field required"}},
		})
	}

	maxBytes := h.maxUploadMB * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return nil, nil, c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"detail": fmt.Sprintf("file size exceeds maximum of %dMB", h.maxUploadMB),
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read uploaded file")
	}
	return fileHeader, content, nil
}
