package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/felicity-portal/felicity-api/internal/api"
	"github.com/felicity-portal/felicity-api/internal/config"
	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
)

func setupServer(t *testing.T) (*api.Server, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(db))

	conf := &config.AppConfig{
		API: &config.APIConfig{
			Environment:        "test",
			Port:               "8080",
			JWTSigningKey:      "test-signing-key",
			AllowedCORSDomains: []string{"http://localhost:3000"},
		},
		Gin:  &config.GinConfig{Mode: "test"},
		SMTP: &config.SMTPConfig{Host: "localhost", Port: "25", From: "noreply@felicity.test"},
	}

	return api.NewServer(conf, db), db
}

func doRequest(s *api.Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w
}

func signup(t *testing.T, s *api.Server, email string) {
	t.Helper()

	w := doRequest(s, http.MethodPost, "/api/v1/auth/signup", "", map[string]interface{}{
		"email":    email,
		"password": "secret123a",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func login(t *testing.T, s *api.Server, email, password string) string {
	t.Helper()

	w := doRequest(s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	return resp.Token
}

// seedAdmin inserts an admin account directly; there is no signup route for
// the admin role.
func seedAdmin(t *testing.T, db *gorm.DB, email string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123a"), bcrypt.DefaultCost)
	require.NoError(t, err)

	_, err = dao.NewUserDAO(db).Insert(context.Background(), dao.User{
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleAdmin.String(),
		Name:     "Fest Admin",
	})
	require.NoError(t, err)
}

func createOrganiser(t *testing.T, s *api.Server, adminToken, email string) domain.Organiser {
	t.Helper()

	w := doRequest(s, http.MethodPost, "/api/v1/admin/organisers", adminToken, map[string]string{
		"email":    email,
		"password": "secret123a",
		"name":     "Dance Club",
		"category": "cultural",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var organiser domain.Organiser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &organiser))

	return organiser
}

func createPublishedEvent(t *testing.T, s *api.Server, organiserToken string, body map[string]interface{}) domain.Event {
	t.Helper()

	if body == nil {
		body = map[string]interface{}{}
	}
	if _, ok := body["name"]; !ok {
		body["name"] = "Night Concert"
	}
	if _, ok := body["type"]; !ok {
		body["type"] = "normal"
	}
	if _, ok := body["registration_deadline"]; !ok {
		body["registration_deadline"] = time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	}

	w := doRequest(s, http.MethodPost, "/api/v1/events", organiserToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var event domain.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))

	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/events/%d/status", event.ID), organiserToken,
		map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))

	return event
}

func TestAuthFlow(t *testing.T) {
	s, _ := setupServer(t)

	signup(t, s, "alice@felicity.test")
	token := login(t, s, "alice@felicity.test", "secret123a")

	w := doRequest(s, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me domain.Participant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "alice@felicity.test", me.Email)

	// No token and a garbage token are both rejected.
	w = doRequest(s, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignup_WeakPasswordRejected(t *testing.T) {
	s, _ := setupServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "alice@felicity.test",
		"password": "short",
		"name":     "Alice",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminOrganiserManagement(t *testing.T) {
	s, db := setupServer(t)
	seedAdmin(t, db, "admin@felicity.test")
	adminToken := login(t, s, "admin@felicity.test", "secret123a")

	organiser := createOrganiser(t, s, adminToken, "dance@felicity.test")
	require.NotZero(t, organiser.ID)

	// Non-admins cannot touch the admin surface.
	signup(t, s, "alice@felicity.test")
	aliceToken := login(t, s, "alice@felicity.test", "secret123a")
	w := doRequest(s, http.MethodPost, "/api/v1/admin/organisers", aliceToken, map[string]string{
		"email":    "rogue@felicity.test",
		"password": "secret123a",
		"name":     "Rogue Club",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Password reset returns the temporary password once.
	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/admin/organisers/%d/password", organiser.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reset struct {
		TemporaryPassword string `json:"temporary_password"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reset))
	require.NotEmpty(t, reset.TemporaryPassword)
	login(t, s, "dance@felicity.test", reset.TemporaryPassword)

	w = doRequest(s, http.MethodDelete, fmt.Sprintf("/api/v1/admin/organisers/%d", organiser.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/admin/organisers", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var organisers []domain.Organiser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &organisers))
	require.Empty(t, organisers)
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	s, db := setupServer(t)
	seedAdmin(t, db, "admin@felicity.test")
	adminToken := login(t, s, "admin@felicity.test", "secret123a")
	createOrganiser(t, s, adminToken, "dance@felicity.test")
	organiserToken := login(t, s, "dance@felicity.test", "secret123a")

	event := createPublishedEvent(t, s, organiserToken, nil)
	require.Equal(t, domain.EventStatusPublished, event.Status)

	// Published events lock the name but accept a description edit.
	w := doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/events/%d", event.ID), organiserToken,
		map[string]string{"name": "Renamed", "description": "Updated description"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated domain.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, event.Name, updated.Name)
	require.Equal(t, "Updated description", updated.Description)

	// Ongoing events refuse edits outright.
	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/events/%d/status", event.ID), organiserToken,
		map[string]string{"status": "ongoing"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/events/%d", event.ID), organiserToken,
		map[string]string{"description": "too late"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Skipping a lifecycle step is rejected.
	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/events/%d/status", event.ID), organiserToken,
		map[string]string{"status": "draft"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	s, db := setupServer(t)
	seedAdmin(t, db, "admin@felicity.test")
	adminToken := login(t, s, "admin@felicity.test", "secret123a")
	createOrganiser(t, s, adminToken, "dance@felicity.test")
	organiserToken := login(t, s, "dance@felicity.test", "secret123a")

	event := createPublishedEvent(t, s, organiserToken, map[string]interface{}{
		"registration_limit": 1,
	})

	signup(t, s, "alice@felicity.test")
	aliceToken := login(t, s, "alice@felicity.test", "secret123a")

	w := doRequest(s, http.MethodPost, fmt.Sprintf("/api/v1/registrations/%d", event.ID), aliceToken,
		map[string]interface{}{"answers": map[string]string{"tshirt": "M"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Registration domain.Registration `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, domain.RegistrationStatusSuccessful, created.Registration.Status)
	require.Len(t, created.Registration.TicketID, 8)

	// The event is now full for the next participant.
	signup(t, s, "bob@felicity.test")
	bobToken := login(t, s, "bob@felicity.test", "secret123a")
	w = doRequest(s, http.MethodPost, fmt.Sprintf("/api/v1/registrations/%d", event.ID), bobToken, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// History reflects the registration.
	w = doRequest(s, http.MethodGet, "/api/v1/registrations/history", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []domain.RegistrationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.Equal(t, event.Name, history[0].EventName)

	// Check-in succeeds once, then reports the duplicate with details.
	w = doRequest(s, http.MethodPut, "/api/v1/registrations/attendance", organiserToken,
		map[string]interface{}{"ticketId": created.Registration.TicketID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(s, http.MethodPut, "/api/v1/registrations/attendance", organiserToken,
		map[string]interface{}{"ticketId": created.Registration.TicketID})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var dup struct {
		Error             string    `json:"error"`
		PreviousTimestamp time.Time `json:"previous_timestamp"`
		ParticipantName   string    `json:"participant_name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	require.False(t, dup.PreviousTimestamp.IsZero())
	require.NotEmpty(t, dup.ParticipantName)

	// Checked-in registrations cannot be cancelled.
	w = doRequest(s, http.MethodDelete, fmt.Sprintf("/api/v1/registrations/%d", created.Registration.ID), aliceToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMerchandiseReviewOverHTTP(t *testing.T) {
	s, db := setupServer(t)
	seedAdmin(t, db, "admin@felicity.test")
	adminToken := login(t, s, "admin@felicity.test", "secret123a")
	createOrganiser(t, s, adminToken, "dance@felicity.test")
	organiserToken := login(t, s, "dance@felicity.test", "secret123a")

	event := createPublishedEvent(t, s, organiserToken, map[string]interface{}{
		"name":           "Fest Hoodie",
		"type":           "merchandise",
		"stock_quantity": 1,
	})

	signup(t, s, "alice@felicity.test")
	aliceToken := login(t, s, "alice@felicity.test", "secret123a")

	// No payment proof, no order.
	w := doRequest(s, http.MethodPost, fmt.Sprintf("/api/v1/registrations/%d", event.ID), aliceToken,
		map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodPost, fmt.Sprintf("/api/v1/registrations/%d", event.ID), aliceToken,
		map[string]interface{}{"payment_proof": "upi-ref-42"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Registration domain.Registration `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, domain.RegistrationStatusPendingApproval, created.Registration.Status)
	require.Empty(t, created.Registration.TicketID)

	// The organiser sees the pending order and approves it.
	w = doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/events/%d/registrations", event.ID), organiserToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pending []domain.Registration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)

	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/registrations/review/%d", created.Registration.ID),
		organiserToken, map[string]string{"reviewStatus": "Approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved domain.Registration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approved))
	require.Equal(t, domain.RegistrationStatusSuccessful, approved.Status)
	require.Len(t, approved.TicketID, 8)

	// Re-reviewing the processed order fails.
	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/v1/registrations/review/%d", created.Registration.ID),
		organiserToken, map[string]string{"reviewStatus": "Rejected"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthcheck(t *testing.T) {
	s, _ := setupServer(t)

	w := doRequest(s, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
