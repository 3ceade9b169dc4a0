package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
)

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Message string `json:"msg,omitempty"`
}

type StrikesResponse struct {
	User    string   `json:"user"`
	Flair   string   `json:"flair"`
	Strikes int      `json:"strikes"`
	PostIDs []string `json:"postIds"`
	Banned  bool     `json:"banned"`
}

type ProcessedResponse struct {
	PostID    string `json:"postId"`
	Processed bool   `json:"processed"`
}

// Small read-only HTTP API for moderators and health checks.
func (s *Server) adminEcho(reg prometheus.Registerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mmb_admin",
		Registerer: reg,
	}))
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/_health", s.HandleHealthCheck)
	e.GET("/strikes/:user", s.HandleStrikes)
	e.GET("/processed/:post", s.HandleProcessed)
	return e
}

func (s *Server) RunAdmin(ctx context.Context, bind string) error {
	httpTimeout := 1 * time.Minute
	srv := &http.Server{
		Handler:      s.adminEcho(prometheus.DefaultRegisterer),
		Addr:         bind,
		WriteTimeout: httpTimeout,
		ReadTimeout:  httpTimeout,
	}
	s.logger.Info("starting admin server", "bind", bind)
	return serveUntilDone(ctx, srv)
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		slog.Warn("mmb-http-internal-error", "err", err)
	}
	c.JSON(code, GenericStatus{Status: "error", Daemon: "mmb", Message: errorMessage})
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "mmb", Version: versioninfo.Short()})
}

// Current strike state, from the account's live flair.
func (s *Server) HandleStrikes(c echo.Context) error {
	user := c.Param("user")
	if user == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username required")
	}
	state, err := s.engine.UserStrikes(c.Request().Context(), user)
	if err != nil {
		return err
	}
	ids := state.PostIDs
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, StrikesResponse{
		User:    user,
		Flair:   state.Raw,
		Strikes: state.Count,
		PostIDs: ids,
		Banned:  state.Banned(s.engine.Policy.BanThreshold),
	})
}

// Whether a post has already had a strike (or spam ban) applied.
func (s *Server) HandleProcessed(c echo.Context) error {
	postID := c.Param("post")
	if postID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "post ID required")
	}
	ok, err := s.engine.Seen.Has(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProcessedResponse{PostID: postID, Processed: ok})
}
