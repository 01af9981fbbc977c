package echoServer

import (
	"net/http"

	"bookswap/app/echoServer/controller/auth"
	"bookswap/app/echoServer/controller/book"
	"bookswap/app/echoServer/controller/request"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth    *auth.Controller
	Book    *book.Controller
	Request *request.Controller

	JWTSecret string
	UploadDir string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1/auth")
	pub.POST("/signup", c.Auth.Signup)
	pub.POST("/verify-otp", c.Auth.VerifyOTP)
	pub.POST("/login", c.Auth.Login)
	pub.POST("/refresh", c.Auth.Refresh)

	// Uploaded book covers
	e.Static("/uploads", c.UploadDir)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tok, ok := ctx.Get("user").(*jwt.Token)
			if !ok || tok == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			if typ, _ := claims["typ"].(string); typ != "access" {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			return next(ctx)
		}
	})

	auth.POST("/auth/logout", c.Auth.Logout)
	auth.GET("/auth/profile", c.Auth.Profile)

	// Books
	auth.POST("/books", c.Book.Create)
	auth.GET("/books", c.Book.List)
	auth.GET("/books/my-books", c.Book.MyBooks)
	auth.GET("/books/:id", c.Book.Detail)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Exchange requests
	auth.POST("/requests", c.Request.Create)
	auth.GET("/requests/sent", c.Request.Sent)
	auth.GET("/requests/received", c.Request.Received)
	auth.GET("/requests/stats", c.Request.Stats)
	auth.GET("/requests/:id", c.Request.Detail)
	auth.PUT("/requests/:id", c.Request.Update)
	auth.DELETE("/requests/:id", c.Request.Cancel)
}
