package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/pixvault/pixvault/internal/api/handlers/image"
	"github.com/pixvault/pixvault/internal/api/handlers/user"
	"github.com/pixvault/pixvault/internal/api/middleware"
)

func Setup(imgHandler *image.Handler, userHandler *user.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.GET("/images", imgHandler.ListPublic) // all public images

	api.POST("/users", userHandler.Create)
	api.DELETE("/users/:user_id", userHandler.Delete)

	users := api.Group("/users/:user_id")

	users.POST("/images/upload-urls", imgHandler.GenerateUploadURLs) // presigned upload slots
	users.POST("/images/confirm", imgHandler.ConfirmUploaded)       // confirm uploads
	users.GET("/images", imgHandler.List)                           // list/search own images
	users.GET("/images/:id", imgHandler.Get)                        // single image
	users.DELETE("/images", imgHandler.Delete)                      // delete own images

	return r
}
