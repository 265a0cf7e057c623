package middleware

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/routetree"
)

// Default tracer name for pageload applications.
const defaultTracerName = "pageload"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "pageload").
	TracerName string

	// TracerProvider provides the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// IncludeParams records route parameters as span attributes.
	// May contain sensitive information - disabled by default.
	IncludeParams bool

	// Filter determines which requests to trace.
	// If nil, all loader calls are traced.
	Filter func(r *http.Request) bool

	// AttributeExtractor extracts custom attributes from the request.
	AttributeExtractor func(r *http.Request) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeParams enables recording route parameters.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(r *http.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(r *http.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every loader call.
//
// The span carries the route pattern, the request path and the result
// kind. Errors are recorded on the span and set its status.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(route string, next load.Loader) load.Loader {
		return func(ctx context.Context, r *http.Request, params routetree.Params) (load.Result, error) {
			if config.Filter != nil && r != nil && !config.Filter(r) {
				return next(ctx, r, params)
			}

			attrs := []attribute.KeyValue{
				attribute.String("pageload.route", route),
			}
			if r != nil {
				attrs = append(attrs,
					attribute.String("pageload.path", r.URL.Path),
					attribute.Bool("pageload.payload", load.IsLoaderRequest(r)),
				)
			}
			if config.IncludeParams {
				for name, p := range params {
					attrs = append(attrs, attribute.String("pageload.param."+name, p.String()))
				}
			}
			if config.AttributeExtractor != nil && r != nil {
				attrs = append(attrs, config.AttributeExtractor(r)...)
			}

			spanCtx, span := tracer.Start(ctx, fmt.Sprintf("pageload.load %s", route),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			res, err := next(spanCtx, r, params)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return res, err
			}
			if res != nil {
				span.SetAttributes(attribute.String("pageload.outcome", load.Kind(res)))
			}
			span.SetStatus(codes.Ok, "")
			return res, nil
		}
	}
}
