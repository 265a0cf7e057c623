package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Errors (E100-E109)
	// ============================================

	"E100": {
		Category: CategoryRoute,
		Message:  "Duplicate router path",
		Detail:   "The same route path was registered twice. Two route files that normalize to the same URL path cannot coexist.",
		DocURL:   "https://pageload.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryRoute,
		Message:  "Shared router path",
		Detail:   "Two different dynamic segments occupy the same position in the route tree. A directory may hold at most one [name] and one [...name] entry.",
		DocURL:   "https://pageload.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryRoute,
		Message:  "Invalid router path",
		Detail:   "A bracketed segment must be closed, and a catch-all segment must be the last segment of its path.",
		DocURL:   "https://pageload.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryRoute,
		Message:  "No route found",
		Detail:   "No registered page matches the requested path.",
		DocURL:   "https://pageload.dev/docs/errors/E103",
	},

	// ============================================
	// Load Errors (E110-E111)
	// ============================================

	"E110": {
		Category: CategoryLoad,
		Message:  "Loader failed",
		DocURL:   "https://pageload.dev/docs/errors/E110",
	},
	"E111": {
		Category: CategoryLoad,
		Message:  "Invalid load payload",
		Detail:   "A load payload must be exactly one of {\"props\":...}, {\"notFound\":true} or {\"redirect\":\"...\"}.",
		DocURL:   "https://pageload.dev/docs/errors/E111",
	},

	// ============================================
	// Navigation Errors (E112)
	// ============================================

	"E112": {
		Category: CategoryNavigation,
		Message:  "Prefetch failed",
		DocURL:   "https://pageload.dev/docs/errors/E112",
	},

	// ============================================
	// Config Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		DocURL:   "https://pageload.dev/docs/errors/E120",
	},

	// ============================================
	// Export Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryExport,
		Message:  "Export failed",
		DocURL:   "https://pageload.dev/docs/errors/E130",
	},
}

// Register adds a custom error code to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for an error code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
