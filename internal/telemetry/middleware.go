package telemetry

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mobipent-devserver"

// FiberMiddleware traces dev server requests, continuing the trace the client's
// otelhttp transport propagates in the traceparent header
func FiberMiddleware() fiber.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(c *fiber.Ctx) error {
		ctx := propagator.Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), c.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.route", c.Path()),
				attribute.String("http.user_agent", c.Get("User-Agent")),
				attribute.Int("http.request_content_length", c.Request().Header.ContentLength()),
				attribute.Bool("mobipent.bearer_present", strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer")) != ""),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)

		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		err := c.Next()

		statusCode := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", statusCode))

		if statusCode >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return err
	}
}

// AddSpanEvent adds an event to the request span
func AddSpanEvent(c *fiber.Ctx, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(c.UserContext()).AddEvent(name, trace.WithAttributes(attrs...))
}
