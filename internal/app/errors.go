package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/storeadmin/internal/pkg"
)

// errorPages maps status codes to error templates. Other codes use errors/500.html.
var errorPages = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// renderError answers with the list envelope for JSON clients and with an
// error page for everyone else.
func renderError(c *gin.Context, code int, message string) {
	if wantsJSON(c) {
		c.JSON(code, pkg.Response{Status: false, Message: message})
		return
	}
	renderErrorPage(c, code, message)
}

// renderErrorPage renders the template for code. If the engine has no HTML
// renderer, or rendering panics, it writes "<code> <status text>" as plain text.
func renderErrorPage(c *gin.Context, code int, message string) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", code, statusTitle(code))))
		}
	}()

	page, ok := errorPages[code]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}
	c.HTML(code, page, gin.H{
		"Title":   statusTitle(code),
		"Code":    code,
		"Message": message,
	})
}

// wantsJSON reports whether the client asked for JSON and not HTML. Browsers
// send text/html or */*; a missing Accept header is treated as a browser.
func wantsJSON(c *gin.Context) bool {
	accept := strings.ToLower(strings.TrimSpace(c.GetHeader("Accept")))
	switch {
	case accept == "", strings.Contains(accept, "text/html"):
		return false
	case strings.Contains(accept, "application/json"):
		return true
	default:
		return !strings.Contains(accept, "*/*")
	}
}

func statusTitle(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Error"
}
