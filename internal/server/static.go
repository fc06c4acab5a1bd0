package server

import (
	"embed"
	"io/fs"

	"github.com/labstack/echo/v4"
)

//go:embed web
var webFS embed.FS

// RegisterStatic mounts the embedded demo chat page at /.
func RegisterStatic(e *echo.Echo) {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic("failed to create sub filesystem for web assets: " + err.Error())
	}
	e.FileFS("/", "index.html", sub)
}
