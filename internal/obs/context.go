package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context for the
// metrics, tracing, and logging middleware downstream.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern, or "" when no route
// matched the request.
func RoutePatternFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}
