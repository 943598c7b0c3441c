package api

import (
	"errors"
	"net/http"

	"github.com/computersciencehouse/borda/logging"
	"github.com/computersciencehouse/borda/poll"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{poll.ErrNotFound, http.StatusNotFound, "not_found"},
	{poll.ErrForbidden, http.StatusForbidden, "forbidden"},
	{poll.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{poll.ErrPollNotOpen, http.StatusConflict, "poll_not_open"},
	{poll.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{poll.ErrInvalidBallot, http.StatusBadRequest, "invalid_ballot"},
	{poll.ErrInvalidPoll, http.StatusBadRequest, "invalid_poll"},
}

func abortWithError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, errorBody{Error: e.code, Message: err.Error()})
			return
		}
	}

	logging.Logger.WithFields(logrus.Fields{"module": "api", "method": c.Request.Method, "path": c.FullPath(), "error": err}).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
}
