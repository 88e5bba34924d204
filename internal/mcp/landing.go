package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>docchat</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; max-width: 640px; margin: 3rem auto; padding: 0 1rem; color: #1e293b; }
  code, pre { font-family: Menlo, monospace; font-size: 0.9rem; }
  pre { background: #f1f5f9; padding: 1rem; border-radius: 6px; overflow-x: auto; }
  li { margin-bottom: 0.3rem; }
</style>
</head>
<body>
<h1>docchat</h1>
<p>Chat with a single document over the Model Context Protocol.</p>
<h2>Endpoints</h2>
<ul>
  <li><a href="/mcp"><code>/mcp</code></a> MCP Streamable HTTP</li>
  <li><a href="/health"><code>/health</code></a> Health check</li>
</ul>
<h2>Tools</h2>
<ul>
  <li><code>ingest_document</code> load a PDF, text, Word or markdown file</li>
  <li><code>ask_question</code> ask about the loaded document</li>
  <li><code>document_status</code> describe the loaded document</li>
  <li><code>chat_history</code> show the conversation</li>
  <li><code>reset_conversation</code> start the conversation over</li>
</ul>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
