package controller

import (
	"net/http"

	"puntibot/web/locale"

	"github.com/gin-gonic/gin"
)

// IndexController serves the keep-alive endpoint used by external liveness
// probes. It is not part of the bot logic.
type IndexController struct{}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
}

func (a *IndexController) index(c *gin.Context) {
	c.String(http.StatusOK, locale.I18n(locale.Web, "web.alive"))
}
