package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/computersciencehouse/borda/database"
	"github.com/computersciencehouse/borda/poll"
	"github.com/computersciencehouse/borda/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func setupRouter(t *testing.T, limiter *rate.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewPollService(database.NewMemoryStore())
	return NewRouter(svc, Options{Identity: HeaderIdentity{}, Limiter: limiter})
}

func do(t *testing.T, r http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func createColours(t *testing.T, r http.Handler) poll.Poll {
	w := do(t, r, http.MethodPost, "/api/polls", "owner", gin.H{
		"title":   "Favourite colour",
		"options": []gin.H{{"label": "Red"}, {"label": "Green"}, {"label": "Blue"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p poll.Poll
	decode(t, w, &p)
	return p
}

func rankingsBody(p poll.Poll, order ...int) gin.H {
	rankings := make([]gin.H, len(order))
	for i, idx := range order {
		rankings[i] = gin.H{"option_id": p.Options[idx].ID, "rank": i + 1}
	}
	return gin.H{"rankings": rankings}
}

func TestHealthz(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreatePoll(t *testing.T) {
	r := setupRouter(t, nil)
	p := createColours(t, r)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Favourite colour", p.Title)
	assert.Equal(t, poll.StatusDraft, p.Status)
	assert.Equal(t, "owner", p.OwnerID)
	require.Len(t, p.Options, 3)
	for _, o := range p.Options {
		assert.NotEmpty(t, o.ID)
	}

	w := do(t, r, http.MethodGet, "/api/polls/"+p.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePollInvalidInput(t *testing.T) {
	r := setupRouter(t, nil)

	tests := []struct {
		name   string
		user   string
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "anonymous",
			body:   gin.H{"title": "T", "options": []gin.H{{"label": "A"}, {"label": "B"}}},
			status: http.StatusForbidden,
			code:   "forbidden",
		},
		{
			name:   "single option",
			user:   "owner",
			body:   gin.H{"title": "T", "options": []gin.H{{"label": "A"}}},
			status: http.StatusBadRequest,
			code:   "invalid_poll",
		},
		{
			name:   "missing title",
			user:   "owner",
			body:   gin.H{"options": []gin.H{{"label": "A"}, {"label": "B"}}},
			status: http.StatusBadRequest,
			code:   "invalid_poll",
		},
		{
			name:   "malformed body",
			user:   "owner",
			body:   "not an object",
			status: http.StatusBadRequest,
			code:   "invalid_poll",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/polls", tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestUnknownPoll(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/polls/nope", "owner", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "not_found", body.Error)
}

func TestVotingFlow(t *testing.T) {
	r := setupRouter(t, nil)
	p := createColours(t, r)
	base := "/api/polls/" + p.ID

	w := do(t, r, http.MethodPost, base+"/votes", "voter", rankingsBody(p, 2, 0, 1))
	assert.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "poll_not_open", body.Error)

	w = do(t, r, http.MethodPost, base+"/open", "voter", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, base+"/open", "owner", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, base+"/open", "owner", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "invalid_state_transition", body.Error)

	w = do(t, r, http.MethodPost, base+"/votes", "voter", gin.H{"rankings": []gin.H{{"option_id": p.Options[0].ID, "rank": 1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "invalid_ballot", body.Error)

	w = do(t, r, http.MethodPost, base+"/votes", "voter", rankingsBody(p, 2, 0, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b poll.Ballot
	decode(t, w, &b)
	assert.Equal(t, p.ID, b.PollID)
	assert.Equal(t, "voter", b.VoterID)
	assert.Equal(t, p.Options[2].ID, b.Rankings[0].OptionID)

	w = do(t, r, http.MethodPost, base+"/votes", "voter", rankingsBody(p, 0, 1, 2))
	assert.Equal(t, http.StatusConflict, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "already_voted", body.Error)

	w = do(t, r, http.MethodGet, base+"/voted", "voter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var voted votedResponse
	decode(t, w, &voted)
	assert.True(t, voted.Voted)

	w = do(t, r, http.MethodGet, base+"/voted", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, base+"/results", "voter", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, base+"/close", "voter", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, base+"/close", "owner", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, base+"/results", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result poll.TallyResult
	decode(t, w, &result)
	assert.Equal(t, 1, result.TotalVotes)
	assert.Equal(t, poll.StatusClosed, result.Status)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "Blue", result.Results[0].Label)
	assert.Equal(t, 3, result.Results[0].Score)
	assert.Equal(t, "Red", result.Results[1].Label)
	assert.Equal(t, "Green", result.Results[2].Label)
}

func TestListPollsFilters(t *testing.T) {
	r := setupRouter(t, nil)
	p := createColours(t, r)
	createColours(t, r)

	w := do(t, r, http.MethodPost, "/api/polls/"+p.ID+"/open", "owner", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var polls []poll.Poll
	w = do(t, r, http.MethodGet, "/api/polls?status=open", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &polls)
	require.Len(t, polls, 1)
	assert.Equal(t, p.ID, polls[0].ID)

	w = do(t, r, http.MethodGet, "/api/polls?owner=owner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &polls)
	assert.Len(t, polls, 2)

	w = do(t, r, http.MethodGet, "/api/polls?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteRateLimit(t *testing.T) {
	r := setupRouter(t, rate.NewLimiter(rate.Limit(0.001), 1))
	createColours(t, r)

	w := do(t, r, http.MethodPost, "/api/polls", "owner", gin.H{
		"title":   "Again",
		"options": []gin.H{{"label": "A"}, {"label": "B"}},
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, r, http.MethodGet, "/api/polls", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
