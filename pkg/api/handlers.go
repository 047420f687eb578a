package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servolink/servolink-go/pkg/session"
)

func (s *Server) handleGetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   s.ctl.Status(),
	})
}

func (s *Server) handleGetPorts(c *gin.Context) {
	resp := PortsResponse{Authorized: []string{}}
	if s.ports != nil {
		resp.Authorized = s.ports.ListAuthorizedPorts()
	}
	resp.Total = len(resp.Authorized)
	resp.Current = s.ctl.Status().Port

	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   resp,
	})
}

func (s *Server) handleGetSystem(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data: SystemResponse{
			Version: s.version,
			Uptime:  time.Since(s.startTime).Round(time.Second).String(),
			Profile: s.ctl.Profile(),
			Sources: s.ctl.SourceNames(),
		},
	})
}

func (s *Server) handleConnect(c *gin.Context) {
	var req ConnectRequest
	// An empty body is a request for the generic device.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, http.StatusBadRequest, "invalid connect request: "+err.Error())
			return
		}
	}
	s.submit(c, session.Connect(req.Port), "connect requested")
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.submit(c, session.Disconnect(), "disconnect requested")
}

func (s *Server) handleCycle(c *gin.Context) {
	switch dir := c.Param("dir"); dir {
	case "up":
		s.submit(c, session.CycleUp(), "selection cycled up")
	case "down":
		s.submit(c, session.CycleDown(), "selection cycled down")
	default:
		s.fail(c, http.StatusBadRequest, "invalid cycle direction "+dir+", expected up or down")
	}
}

func (s *Server) handleOverlay(c *gin.Context) {
	s.submit(c, session.ToggleOverlay(), "overlay toggled")
}

func (s *Server) handleSetInput(c *gin.Context) {
	source := c.Param("source")
	if err := s.ctl.Accepts(source); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, session.ErrUnknownSource) {
			code = http.StatusNotFound
		}
		s.fail(c, code, err.Error())
		return
	}

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid input request: "+err.Error())
		return
	}
	if len(req.Values) == 0 && len(req.Points) == 0 {
		s.fail(c, http.StatusBadRequest, "input request carries no values or points")
		return
	}
	sample := req.Sample(s.now())
	if !sample.Finite() {
		s.fail(c, http.StatusBadRequest, "input request carries a non-finite number")
		return
	}

	s.submit(c, session.SetInput(source, sample), "input accepted")
}

// submit queues cmd and replies 202, or 503 when the queue is full.
func (s *Server) submit(c *gin.Context, cmd session.Command, message string) {
	if err := s.ctl.Submit(cmd.From(Origin)); err != nil {
		s.logger.Warn("command rejected", "command", cmd.Kind.String(), "error", err)
		s.fail(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, Response{
		Status:  StatusSuccess,
		Message: message,
	})
}

func (s *Server) fail(c *gin.Context, code int, msg string) {
	c.JSON(code, Response{
		Status: StatusError,
		Error:  msg,
	})
}
