package api

import (
	"fmt"
	"net/http"

	"github.com/computersciencehouse/borda/poll"
	"github.com/computersciencehouse/borda/service"
	"github.com/gin-gonic/gin"
)

type pollHandler struct {
	polls *service.PollService
}

type voteRequest struct {
	Rankings []poll.Ranking `json:"rankings"`
}

type votedResponse struct {
	PollID  string `json:"poll_id"`
	VoterID string `json:"voter_id"`
	Voted   bool   `json:"voted"`
}

func (h pollHandler) create(c *gin.Context) {
	var in service.CreatePollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", poll.ErrInvalidPoll, err.Error()))
		return
	}

	p, err := h.polls.CreatePoll(c.Request.Context(), caller(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h pollHandler) list(c *gin.Context) {
	filter := poll.Filter{
		OwnerID: c.Query("owner"),
		Status:  poll.Status(c.Query("status")),
	}

	polls, err := h.polls.ListPolls(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

func (h pollHandler) get(c *gin.Context) {
	p, err := h.polls.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h pollHandler) open(c *gin.Context) {
	p, err := h.polls.OpenPoll(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h pollHandler) close(c *gin.Context) {
	p, err := h.polls.ClosePoll(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h pollHandler) vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", poll.ErrInvalidBallot, err.Error()))
		return
	}

	b, err := h.polls.SubmitVote(c.Request.Context(), c.Param("id"), caller(c), req.Rankings)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h pollHandler) voted(c *gin.Context) {
	voter := caller(c)
	if voter == "" {
		abortWithError(c, fmt.Errorf("%w: sign in to check your ballot", poll.ErrForbidden))
		return
	}

	voted, err := h.polls.HasVoted(c.Request.Context(), c.Param("id"), voter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, votedResponse{PollID: c.Param("id"), VoterID: voter, Voted: voted})
}

func (h pollHandler) results(c *gin.Context) {
	result, err := h.polls.GetResults(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
