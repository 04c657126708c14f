package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"alvara/cmd/middleware"
	"alvara/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/login", r.Service.Login)
	apiGroup.POST("/events", r.Service.CreateEvent)

	process := apiGroup.Group("/process")
	process.GET("", r.Service.GetProcess)
	process.POST("/payment", r.Service.Pay)
	process.GET("/alvara", r.Service.GetAlvara)
	process.POST("/alvara/email", r.Service.EmailAlvara)

	docs := process.Group("/documents/:id")
	docs.GET("", r.Service.GetDocument)
	docs.POST("/submit", r.Service.Submit)
	docs.POST("/declaration", r.Service.SignDeclaration)
	docs.PUT("/title", r.Service.EditTitle)
	docs.POST("/approve", r.Service.Approve)
	docs.POST("/reject", r.Service.Reject)

	return app
}
