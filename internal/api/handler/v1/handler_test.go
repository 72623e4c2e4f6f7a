package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/pkg/jwthelper"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/service"
)

const testSigningKey = "handler-test-signing-key-0123"

func init() {
	gin.SetMode(gin.TestMode)
}

type mockRoundService struct {
	mock.Mock
}

func (m *mockRoundService) Open(ctx context.Context) (domain.Round, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Round), args.Error(1)
}

func (m *mockRoundService) Close(ctx context.Context) (domain.Round, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Round), args.Bool(1), args.Error(2)
}

func (m *mockRoundService) Publish(ctx context.Context, numbers []int) (domain.Round, error) {
	args := m.Called(ctx, numbers)
	return args.Get(0).(domain.Round), args.Error(1)
}

func (m *mockRoundService) CurrentSummary(ctx context.Context) (domain.RoundSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RoundSummary), args.Error(1)
}

func (m *mockRoundService) LatestDrawnNumbers(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	numbers, _ := args.Get(0).([]int)
	return numbers, args.Error(1)
}

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) Submit(ctx context.Context, ownerID, personalID string, numbers domain.RawNumbers) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID, personalID, numbers)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockTicketService) Lookup(ctx context.Context, ticketID string) (domain.TicketView, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(domain.TicketView), args.Error(1)
}

func (m *mockTicketService) TicketQR(ctx context.Context, ticketID string) (domain.TicketQR, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(domain.TicketQR), args.Error(1)
}

func newTestRouter(rounds RoundService, tickets TicketService) *gin.Engine {
	r := gin.New()
	roundHandler := NewRoundHandler(rounds)
	ticketHandler := NewTicketHandler(tickets)
	auth := middleware.NewAuthenticator(testSigningKey).VerifyJWT()

	r.POST("/rounds/open", roundHandler.HandleOpenRound)
	r.POST("/rounds/close", roundHandler.HandleCloseRound)
	r.POST("/rounds/publish", roundHandler.HandlePublishResults)
	r.GET("/rounds/current", roundHandler.HandleGetCurrentRound)
	r.GET("/rounds/latest-drawn", roundHandler.HandleGetLatestDrawn)
	r.POST("/tickets", auth, ticketHandler.HandleSubmitTicket)
	r.GET("/tickets/:ticketID", ticketHandler.HandleGetTicket)
	r.GET("/tickets/:ticketID/qr", ticketHandler.HandleGetTicketQR)
	r.GET("/auth/profile", auth, HandleGetProfile)
	r.GET("/", HandleHealthcheck)

	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func userToken(t *testing.T, owner string) string {
	t.Helper()

	token, err := jwthelper.GenerateToken([]byte(testSigningKey), jwthelper.Identity{OwnerID: owner, Email: owner + "@example.com", Name: "Tester"}, time.Minute)
	require.NoError(t, err)

	return token
}

func TestHandleSubmitTicket(t *testing.T) {
	token := userToken(t, "auth0|1")
	ticketID := uuid.New()

	tests := []struct {
		name       string
		body       string
		token      string
		svcErr     error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "accepted",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			token:      token,
			wantStatus: http.StatusCreated,
			wantBody:   ticketID.String(),
		},
		{
			name:       "not logged in",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Not logged in",
		},
		{
			name:       "validation error",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			token:      token,
			svcErr:     domain.ErrDuplicateValues,
			wantStatus: http.StatusBadRequest,
			wantBody:   "numbers must be unique",
		},
		{
			name:       "no active round",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			token:      token,
			svcErr:     service.ErrNoActiveRound,
			wantStatus: http.StatusConflict,
			wantBody:   "no active round for tickets",
		},
		{
			name:       "duplicate ticket",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			token:      token,
			svcErr:     fmt.Errorf("s.repo.CreateInActiveRound -> %w", service.ErrTicketExists),
			wantStatus: http.StatusBadRequest,
			wantBody:   `"message":"ticket already exists"`,
		},
		{
			name:       "store failure is hidden",
			body:       `{"personal_id":"AB123","numbers":[1,2,3,4,5,6]}`,
			token:      token,
			svcErr:     fmt.Errorf("s.repo.CreateInActiveRound -> %w", service.ErrPersistence),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Something went wrong",
		},
		{
			name:       "malformed body",
			body:       `{"personal_id":"AB123","numbers":[1,"x"]}`,
			token:      token,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockTicketService)
			svc.On("Submit", mock.Anything, "auth0|1", "AB123", mock.Anything).Return(ticketID, tt.svcErr).Maybe()

			rec := doRequest(t, newTestRouter(new(mockRoundService), svc), http.MethodPost, "/tickets", tt.body, tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandleSubmitTicket_StringNumbers(t *testing.T) {
	svc := new(mockTicketService)
	svc.On("Submit", mock.Anything, "auth0|1", "AB123", domain.NumbersText("1, 2, 3, 4, 5, 6")).Return(uuid.New(), nil)

	rec := doRequest(t, newTestRouter(new(mockRoundService), svc), http.MethodPost, "/tickets",
		`{"personal_id":"AB123","numbers":"1, 2, 3, 4, 5, 6"}`, userToken(t, "auth0|1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleGetTicket(t *testing.T) {
	id := uuid.New()
	svc := new(mockTicketService)
	svc.On("Lookup", mock.Anything, id.String()).Return(domain.TicketView{
		ID:           id,
		PersonalID:   "AB123",
		Numbers:      []int{1, 2, 3, 4, 5, 6},
		DrawnNumbers: []int{1, 2, 3, 7, 8, 9},
		RoundStatus:  domain.RoundClosed,
	}, nil)
	svc.On("Lookup", mock.Anything, "missing").Return(domain.TicketView{}, service.ErrTicketNotFound)

	r := newTestRouter(new(mockRoundService), svc)

	rec := doRequest(t, r, http.MethodGet, "/tickets/"+id.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ticket map[string]interface{} `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "closed", body.Ticket["round_status"])
	assert.Len(t, body.Ticket["drawn_numbers"], 6)

	rec = doRequest(t, r, http.MethodGet, "/tickets/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetTicket_UnpublishedRoundHasNullDrawnNumbers(t *testing.T) {
	id := uuid.New()
	svc := new(mockTicketService)
	svc.On("Lookup", mock.Anything, id.String()).Return(domain.TicketView{
		ID:          id,
		PersonalID:  "AB123",
		Numbers:     []int{1, 2, 3, 4, 5, 6},
		RoundStatus: domain.RoundActive,
	}, nil)

	rec := doRequest(t, newTestRouter(new(mockRoundService), svc), http.MethodGet, "/tickets/"+id.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"drawn_numbers":null`)
}

func TestHandleGetTicketQR(t *testing.T) {
	id := uuid.New()
	svc := new(mockTicketService)
	svc.On("TicketQR", mock.Anything, id.String()).Return(domain.TicketQR{
		QRCode:    "data:image/png;base64,AAAA",
		TicketURL: "http://localhost:5173/ticket/" + id.String(),
		Ticket:    domain.TicketView{ID: id},
	}, nil)
	svc.On("TicketQR", mock.Anything, "missing").Return(domain.TicketQR{}, service.ErrTicketNotFound)

	r := newTestRouter(new(mockRoundService), svc)

	rec := doRequest(t, r, http.MethodGet, "/tickets/"+id.String()+"/qr", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"qrCode":"data:image/png;base64,AAAA"`)
	assert.Contains(t, rec.Body.String(), `"ticketUrl"`)

	rec = doRequest(t, r, http.MethodGet, "/tickets/missing/qr", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRounds(t *testing.T) {
	svc := new(mockRoundService)
	id := uuid.New()
	now := time.Now().UTC()
	svc.On("Open", mock.Anything).Return(domain.Round{ID: id, Status: domain.RoundActive, CreatedAt: now}, nil)
	svc.On("Close", mock.Anything).Return(domain.Round{}, false, nil)
	svc.On("CurrentSummary", mock.Anything).Return(domain.RoundSummary{}, nil)
	svc.On("LatestDrawnNumbers", mock.Anything).Return(nil, nil)

	r := newTestRouter(svc, new(mockTicketService))

	rec := doRequest(t, r, http.MethodPost, "/rounds/open", "", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())

	rec = doRequest(t, r, http.MethodPost, "/rounds/close", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"closed":false`)

	rec = doRequest(t, r, http.MethodGet, "/rounds/current", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isActive":false,"ticketCount":0,"drawnNumbers":null}`, rec.Body.String())

	rec = doRequest(t, r, http.MethodGet, "/rounds/latest-drawn", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"drawnNumbers":null}`, rec.Body.String())
}

func TestHandlePublishResults(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcRound   domain.Round
		svcErr     error
		wantStatus int
	}{
		{name: "published", body: `{"numbers":[1,2,3,4,5,6]}`, svcRound: domain.Round{ID: uuid.New(), DrawnNumbers: []int{1, 2, 3, 4, 5, 6}}, wantStatus: http.StatusOK},
		{name: "missing numbers", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "invalid numbers", body: `{"numbers":[1,2,3]}`, svcErr: domain.ErrCountOutOfRange, wantStatus: http.StatusBadRequest},
		{name: "no pending round", body: `{"numbers":[1,2,3,4,5,6]}`, svcErr: service.ErrNoPendingRound, wantStatus: http.StatusConflict},
		{name: "store failure", body: `{"numbers":[1,2,3,4,5,6]}`, svcErr: service.ErrPersistence, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockRoundService)
			svc.On("Publish", mock.Anything, mock.Anything).Return(tt.svcRound, tt.svcErr).Maybe()

			rec := doRequest(t, newTestRouter(svc, new(mockTicketService)), http.MethodPost, "/rounds/publish", tt.body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleGetProfile(t *testing.T) {
	r := newTestRouter(new(mockRoundService), new(mockTicketService))

	rec := doRequest(t, r, http.MethodGet, "/auth/profile", "", userToken(t, "auth0|9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sub":"auth0|9","email":"auth0|9@example.com","name":"Tester"}`, rec.Body.String())

	rec = doRequest(t, r, http.MethodGet, "/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleHealthcheck(t *testing.T) {
	rec := doRequest(t, newTestRouter(new(mockRoundService), new(mockTicketService)), http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
