package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"os"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Swagger Handlers
// ============================================================

// DocTags: порядок разделов на странице документации.
var DocTags = []string{"Jobs", "Sessions", "Diagram", "Selection", "Chat", "Job parts", "Events", "Analysis"}

// SwaggerSpec отдаёт OpenAPI YAML из файла path.
func SwaggerSpec(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "openapi document not found"})
		}
		c.Type("yaml")
		return c.Send(data)
	}
}

// SwaggerUI отдаёт Swagger UI для документа specURL. Разделы идут в порядке
// tags, неизвестные теги в конце по алфавиту.
func SwaggerUI(specURL, title string, tags []string) fiber.Handler {
	order, err := json.Marshal(tags)
	if err != nil {
		order = []byte("[]")
	}
	spec, _ := json.Marshal(specURL)
	page := fmt.Sprintf(swaggerPage, html.EscapeString(title), spec, order)

	return func(c fiber.Ctx) error {
		c.Type("html")
		return c.SendString(page)
	}
}

const swaggerPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  const tagOrder = %[3]s;
  const rank = (tag) => {
    const i = tagOrder.indexOf(tag);
    return i < 0 ? tagOrder.length : i;
  };
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: %[2]s,
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      docExpansion: 'list',
      filter: true,
      tagsSorter: (a, b) => rank(a) - rank(b) || a.localeCompare(b),
      operationsSorter: 'method',
    });
  };
</script>
</body>
</html>`
