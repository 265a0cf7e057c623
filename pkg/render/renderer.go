package render

// RendererConfig configures the document renderer.
type RendererConfig struct {
	// Lang is the lang attribute of the html element.
	// Defaults to "en" if not specified.
	Lang string

	// ClientScript is the path of the navigation client script.
	// Defaults to "/_pageload/client.js" if not specified.
	ClientScript string

	// PayloadID is the id of the script element holding the load payload.
	// Defaults to "__pageload_data" if not specified.
	PayloadID string

	// StyleSheets are linked from every document head.
	StyleSheets []string
}

// Default renderer values.
const (
	DefaultLang         = "en"
	DefaultClientScript = "/_pageload/client.js"
	DefaultPayloadID    = "__pageload_data"
)

// Renderer renders HTML documents. It holds no per-request state and is
// safe for concurrent use.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Lang == "" {
		config.Lang = DefaultLang
	}
	if config.ClientScript == "" {
		config.ClientScript = DefaultClientScript
	}
	if config.PayloadID == "" {
		config.PayloadID = DefaultPayloadID
	}
	return &Renderer{config: config}
}

// Config returns the renderer's effective configuration.
func (r *Renderer) Config() RendererConfig {
	return r.config
}
