package http

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kehillah/api"
)

const openAPIPath = "/docs/openapi.yaml"

// docsPage feeds the Swagger UI template. TryItOut is a JS literal so it
// renders bare inside the script block.
type docsPage struct {
	Title    string
	SpecURL  string
	TryItOut template.JS
}

var swaggerUI = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      tryItOutEnabled: {{.TryItOut}},
      presets: [SwaggerUIBundle.presets.apis],
    });
  </script>
</body>
</html>`))

// SetupDocs registers Swagger UI at /docs and the embedded OpenAPI document.
// The page is rendered once; only the "try it out" default varies by request.
func SetupDocs(app *fiber.App) {
	render := func(tryItOut bool) string {
		var b strings.Builder
		_ = swaggerUI.Execute(&b, docsPage{
			Title:    "Kehillah Community API",
			SpecURL:  openAPIPath,
			TryItOut: template.JS(strconv.FormatBool(tryItOut)),
		})
		return b.String()
	}
	pages := map[bool]string{false: render(false), true: render(true)}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(pages[c.QueryBool("try", false)])
	})

	app.Get(openAPIPath, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(api.OpenAPI)
	})
}
