package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gatekeepr/src/boot"
	"gatekeepr/src/controllers"
	"gatekeepr/src/lib/mailer"
	"gatekeepr/src/models"
	"gatekeepr/src/otp"
	"gatekeepr/src/types"
	"gatekeepr/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"github.com/wneessen/go-mail"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type codeRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeRecorder) DispatchAsync(kind mailer.Kind, recipient string, tc *mailer.TemplateContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[recipient] = tc.Code
}

func (c *codeRecorder) codeFor(recipient string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[recipient]
}

type TestSuite struct {
	suite.Suite
	DB         *gorm.DB
	Router     *gin.Engine
	Dispatcher *mailer.Dispatcher
	Codes      *codeRecorder
	Organizer  models.Organizer
	Event      models.Event
	Closed     models.Event
	Token      string
	NoOrgToken string
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "secret")
	registerValidators()

	d, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening test database: %s", err.Error())
	}
	if err := boot.InitDb(d); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	s.DB = d

	// Nothing listens on this port; submissions must succeed regardless of
	// delivery outcome.
	client, err := mail.NewClient("127.0.0.1", mail.WithPort(2525), mail.WithTLSPolicy(mail.NoTLS))
	if err != nil {
		log.Fatalf("error creating smtp client: %s", err.Error())
	}
	s.Dispatcher = mailer.NewDispatcher(client, "Gatekeepr", "noreply@gatekeepr.test", 250*time.Millisecond)

	s.Codes = &codeRecorder{codes: map[string]string{}}
	otpService := otp.NewService(d, otp.NewMemoryStore(), s.Codes, 10*time.Minute, 5)
	auth := controllers.NewAuth(d, otpService)

	s.Organizer = models.Organizer{Name: "Acme Events", Slug: "acme-events"}
	if err := d.Create(&s.Organizer).Error; err != nil {
		log.Fatalf("error creating organizer fixture: %s", err.Error())
	}
	s.Event = models.Event{
		Name:       "Launch Night",
		Slug:       "launch-night",
		DateFrom:   time.Now().Add(24 * time.Hour),
		DateTo:     time.Now().Add(26 * time.Hour),
		Accepting:  true,
		Organizers: []*models.Organizer{&s.Organizer},
	}
	if err := d.Create(&s.Event).Error; err != nil {
		log.Fatalf("error creating event fixture: %s", err.Error())
	}
	s.Closed = models.Event{
		Name:       "Sold Out Gala",
		Slug:       "sold-out-gala",
		DateFrom:   time.Now().Add(48 * time.Hour),
		DateTo:     time.Now().Add(50 * time.Hour),
		Accepting:  false,
		Organizers: []*models.Organizer{&s.Organizer},
	}
	if err := d.Create(&s.Closed).Error; err != nil {
		log.Fatalf("error creating event fixture: %s", err.Error())
	}

	staff := models.User{
		ID:            uuid.New(),
		Name:          "Staff User",
		Email:         "staff@example.com",
		EmailVerified: true,
		OrganizerRef:  &s.Organizer.UUID,
	}
	if err := d.Create(&staff).Error; err != nil {
		log.Fatalf("error creating user fixture: %s", err.Error())
	}
	token, err := utils.GenerateJWT(staff.Email, staff.ID, staff.OrganizerRef)
	if err != nil {
		log.Fatalf("error generating token: %s", err.Error())
	}
	s.Token = token

	visitor := models.User{
		ID:            uuid.New(),
		Name:          "Plain User",
		Email:         "plain@example.com",
		EmailVerified: true,
	}
	if err := d.Create(&visitor).Error; err != nil {
		log.Fatalf("error creating user fixture: %s", err.Error())
	}
	nt, err := utils.GenerateJWT(visitor.Email, visitor.ID, nil)
	if err != nil {
		log.Fatalf("error generating token: %s", err.Error())
	}
	s.NoOrgToken = nt

	router := setupRouter()
	publicRoutes(router, d, s.Dispatcher, auth)
	organizerRoutes(router, d)
	s.Router = router
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) jsonReq(method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		assert.Nil(s.T(), err)
		reader = strings.NewReader(string(b))
	}
	req, _ := http.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := s.jsonReq("GET", "/", "", nil)
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestRegistration() {
	eventId := s.Event.EventUUID.String()

	s.Run("Should persist a submission and return the ticket", func() {
		w := s.jsonReq("POST", "/api/v1/registration?eventId="+eventId, "", map[string]any{
			"name":  "Jane",
			"email": "jane@example.com",
			"age":   21,
		})
		assert.Equal(s.T(), 200, w.Code)

		body := w.Body.String()
		assert.True(s.T(), gjson.Get(body, "success").Bool())
		assert.Equal(s.T(), "Jane", gjson.Get(body, "data.formdata.name").String())
		assert.Equal(s.T(), "21", gjson.Get(body, "data.formdata.age").String())
		assert.False(s.T(), gjson.Get(body, "data.status").Bool())

		ticketId := gjson.Get(body, "data.id").String()
		var ticket models.Ticket
		err := s.DB.Where("id = ?", ticketId).First(&ticket).Error
		assert.Nil(s.T(), err)
		assert.Equal(s.T(), s.Event.EventUUID, ticket.EventUUID)
	})

	s.Run("Should accept a form-encoded submission", func() {
		req, _ := http.NewRequest("POST", "/api/v1/registration?eventId="+eventId,
			strings.NewReader("name=Bob&email=bob%40example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Bob", gjson.Get(w.Body.String(), "data.formdata.name").String())
	})

	s.Run("Should return 400 without an eventId", func() {
		w := s.jsonReq("POST", "/api/v1/registration", "", map[string]any{"email": "x@example.com"})
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should return 404 for an unknown event", func() {
		w := s.jsonReq("POST", "/api/v1/registration?eventId="+uuid.NewString(), "", map[string]any{"email": "x@example.com"})
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should return 404 for the zero event id", func() {
		w := s.jsonReq("POST", "/api/v1/registration?eventId="+uuid.Nil.String(), "", map[string]any{"email": "x@example.com"})
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should return 403 when the event stopped accepting", func() {
		w := s.jsonReq("POST", "/api/v1/registration?eventId="+s.Closed.EventUUID.String(), "", map[string]any{"email": "x@example.com"})
		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should return 400 for a malformed body", func() {
		req, _ := http.NewRequest("POST", "/api/v1/registration?eventId="+eventId, strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.Router.ServeHTTP(w, req)
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should enforce the duplicate policy when disabled", func() {
		os.Setenv("REGISTRATION_ALLOW_DUPLICATES", "false")
		defer os.Unsetenv("REGISTRATION_ALLOW_DUPLICATES")

		userId := uuid.NewString()
		target := fmt.Sprintf("/api/v1/registration?eventId=%s&userId=%s", eventId, userId)
		w := s.jsonReq("POST", target, "", map[string]any{"email": "dup@example.com"})
		assert.Equal(s.T(), 200, w.Code)

		w = s.jsonReq("POST", target, "", map[string]any{"email": "dup@example.com"})
		assert.Equal(s.T(), 409, w.Code)
	})
}

func (s *TestSuite) TestTicketLifecycle() {
	ticket := models.Ticket{
		EventUUID: s.Event.EventUUID,
		FormData:  types.FormData{"email": "guest@example.com", "tm1": "Guest"},
	}
	err := s.DB.Create(&ticket).Error
	assert.Nil(s.T(), err)
	base := "/api/v1/tickets/" + ticket.ID.String()

	s.Run("Should reject callers without a token", func() {
		w := s.jsonReq("PATCH", base+"/attend", "", nil)
		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject callers without an organizer", func() {
		w := s.jsonReq("PATCH", base+"/attend", s.NoOrgToken, nil)
		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should mark attendance and stay idempotent", func() {
		w := s.jsonReq("PATCH", base+"/attend", s.Token, nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.True(s.T(), gjson.Get(w.Body.String(), "data.status").Bool())

		w = s.jsonReq("PATCH", base+"/attend", s.Token, nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.True(s.T(), gjson.Get(w.Body.String(), "data.status").Bool())

		w = s.jsonReq("PATCH", base+"/unattend", s.Token, nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.False(s.T(), gjson.Get(w.Body.String(), "data.status").Bool())
	})

	s.Run("Should list tickets for an owned event", func() {
		w := s.jsonReq("GET", "/api/v1/tickets?eventId="+s.Event.EventUUID.String(), s.Token, nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.Greater(s.T(), len(gjson.Get(w.Body.String(), "data").Array()), 0)
	})

	s.Run("Should return 404 for the zero ticket id", func() {
		w := s.jsonReq("PATCH", "/api/v1/tickets/"+uuid.Nil.String()+"/attend", s.Token, nil)
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should delete the ticket exactly once", func() {
		w := s.jsonReq("DELETE", base, s.Token, nil)
		assert.Equal(s.T(), 200, w.Code)

		w = s.jsonReq("DELETE", base, s.Token, nil)
		assert.Equal(s.T(), 404, w.Code)

		w = s.jsonReq("PATCH", base+"/attend", s.Token, nil)
		assert.Equal(s.T(), 404, w.Code)
	})
}

func (s *TestSuite) TestTicketForeignOrganizer() {
	other := models.Organizer{Name: "Rival Events", Slug: "rival-events"}
	err := s.DB.Create(&other).Error
	assert.Nil(s.T(), err)
	outsider := models.User{
		ID:            uuid.New(),
		Name:          "Rival Staff",
		Email:         "rival@example.com",
		EmailVerified: true,
		OrganizerRef:  &other.UUID,
	}
	err = s.DB.Create(&outsider).Error
	assert.Nil(s.T(), err)
	token, err := utils.GenerateJWT(outsider.Email, outsider.ID, outsider.OrganizerRef)
	assert.Nil(s.T(), err)

	ticket := models.Ticket{EventUUID: s.Event.EventUUID, FormData: types.FormData{}}
	err = s.DB.Create(&ticket).Error
	assert.Nil(s.T(), err)

	w := s.jsonReq("PATCH", "/api/v1/tickets/"+ticket.ID.String()+"/attend", token, nil)
	assert.Equal(s.T(), 403, w.Code)

	var reloaded models.Ticket
	err = s.DB.Where(&models.Ticket{ID: ticket.ID}).First(&reloaded).Error
	assert.Nil(s.T(), err)
	assert.False(s.T(), reloaded.Attended)
}

func (s *TestSuite) TestAuthFlow() {
	email := "jane.auth@example.com"

	w := s.jsonReq("POST", "/api/v1/auth/register", "", map[string]any{
		"name":     "Jane",
		"email":    email,
		"password": "password1",
	})
	assert.Equal(s.T(), 200, w.Code)
	userId := gjson.Get(w.Body.String(), "userId").String()
	assert.NotEmpty(s.T(), userId)

	issued := s.Codes.codeFor(email)
	assert.Len(s.T(), issued, 6)
	wrong := "123456"
	if wrong == issued {
		wrong = "654321"
	}

	s.Run("Should reject a short password", func() {
		w := s.jsonReq("POST", "/api/v1/auth/register", "", map[string]any{
			"name":     "Shorty",
			"email":    "shorty@example.com",
			"password": "short",
		})
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should refuse login before verification", func() {
		w := s.jsonReq("POST", "/api/v1/auth/login", "", map[string]any{
			"email":    email,
			"password": "password1",
		})
		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should exhaust the attempt ceiling on wrong codes", func() {
		for i := 0; i < 4; i++ {
			w := s.jsonReq("POST", "/api/v1/auth/verify-otp", "", map[string]any{
				"userId": userId,
				"email":  email,
				"code":   wrong,
			})
			assert.Equal(s.T(), 400, w.Code)
		}
		w := s.jsonReq("POST", "/api/v1/auth/verify-otp", "", map[string]any{
			"userId": userId,
			"email":  email,
			"code":   wrong,
		})
		assert.Equal(s.T(), 410, w.Code)

		// the right code no longer helps
		w = s.jsonReq("POST", "/api/v1/auth/verify-otp", "", map[string]any{
			"userId": userId,
			"email":  email,
			"code":   issued,
		})
		assert.Equal(s.T(), 410, w.Code)
	})

	s.Run("Should verify with a resent code and establish a session", func() {
		w := s.jsonReq("POST", "/api/v1/auth/resend-otp", "", map[string]any{
			"userId": userId,
			"email":  email,
		})
		assert.Equal(s.T(), 200, w.Code)

		fresh := s.Codes.codeFor(email)
		assert.Len(s.T(), fresh, 6)

		w = s.jsonReq("POST", "/api/v1/auth/verify-otp", "", map[string]any{
			"userId": userId,
			"email":  email,
			"code":   fresh,
		})
		assert.Equal(s.T(), 200, w.Code)

		// the record was consumed; a replay finds nothing
		w = s.jsonReq("POST", "/api/v1/auth/verify-otp", "", map[string]any{
			"userId": userId,
			"email":  email,
			"code":   fresh,
		})
		assert.Equal(s.T(), 404, w.Code)

		w = s.jsonReq("POST", "/api/v1/auth/login", "", map[string]any{
			"email":    email,
			"password": "password1",
		})
		assert.Equal(s.T(), 200, w.Code)
		assert.NotEmpty(s.T(), gjson.Get(w.Body.String(), "token").String())
	})

	s.Run("Should refuse re-registering a verified email", func() {
		w := s.jsonReq("POST", "/api/v1/auth/register", "", map[string]any{
			"name":     "Imposter",
			"email":    email,
			"password": "password2",
		})
		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestPublicEventRoutes() {
	s.Run("Should list only accepting events", func() {
		w := s.jsonReq("GET", "/api/v1/events", "", nil)
		assert.Equal(s.T(), 200, w.Code)
		for _, ev := range gjson.Get(w.Body.String(), "data").Array() {
			assert.NotEqual(s.T(), s.Closed.EventUUID.String(), ev.Get("eventuuid").String())
		}
	})

	s.Run("Should fetch an event by its public id", func() {
		w := s.jsonReq("GET", "/api/v1/events/"+s.Event.EventUUID.String(), "", nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Launch Night", gjson.Get(w.Body.String(), "data.name").String())
	})

	s.Run("Should return 404 for an unknown event", func() {
		w := s.jsonReq("GET", "/api/v1/events/"+uuid.NewString(), "", nil)
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should return 404 for the zero event id", func() {
		w := s.jsonReq("GET", "/api/v1/events/"+uuid.Nil.String(), "", nil)
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should keep an event created closed actually closed", func() {
		var reloaded models.Event
		err := s.DB.Where("event_uuid = ?", s.Closed.EventUUID).First(&reloaded).Error
		assert.Nil(s.T(), err)
		assert.False(s.T(), reloaded.Accepting)
	})
}

func (s *TestSuite) TestEventManagement() {
	s.Run("Should reject an event whose end precedes its start", func() {
		w := s.jsonReq("POST", "/api/v1/events", s.Token, map[string]any{
			"name":      "Backwards",
			"date_from": "2026-10-02 18:00:00 +00:00",
			"date_to":   "2026-10-01 18:00:00 +00:00",
		})
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should create, update, and close an event", func() {
		w := s.jsonReq("POST", "/api/v1/events", s.Token, map[string]any{
			"name":      "Winter Meetup",
			"details":   "Annual gathering",
			"date_from": "2026-12-01 18:00:00 +00:00",
			"date_to":   "2026-12-01 22:00:00 +00:00",
			"accepting": true,
		})
		assert.Equal(s.T(), 201, w.Code)
		body := w.Body.String()
		eventId := gjson.Get(body, "data.eventuuid").String()
		assert.NotEmpty(s.T(), eventId)
		assert.Equal(s.T(), "winter-meetup", gjson.Get(body, "data.slug").String())

		w = s.jsonReq("PATCH", "/api/v1/events/"+eventId, s.Token, map[string]any{
			"details": "Annual gathering, doors at 17:30",
		})
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Annual gathering, doors at 17:30", gjson.Get(w.Body.String(), "data.details").String())

		w = s.jsonReq("PATCH", "/api/v1/events/"+eventId, s.Token, map[string]any{})
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Winter Meetup", gjson.Get(w.Body.String(), "data.name").String())

		w = s.jsonReq("PATCH", "/api/v1/events/"+eventId+"/accepting", s.Token, map[string]any{
			"accepting": false,
		})
		assert.Equal(s.T(), 200, w.Code)

		w = s.jsonReq("POST", "/api/v1/registration?eventId="+eventId, "", map[string]any{"email": "late@example.com"})
		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *TestSuite) TestNotifyReportsDeliveryFailure() {
	w := s.jsonReq("POST", "/api/v1/notify/confirmation", "", map[string]any{
		"email": "jane@example.com",
		"name":  "Jane",
	})
	assert.Equal(s.T(), 502, w.Code)
	body := w.Body.String()
	assert.NotEmpty(s.T(), gjson.Get(body, "error").String())
	assert.NotEmpty(s.T(), gjson.Get(body, "token").String())

	w = s.jsonReq("POST", "/api/v1/notify/confirmation", "", map[string]any{})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestOrganizerRoutes() {
	s.Run("Should fetch an organizer profile by slug", func() {
		w := s.jsonReq("GET", "/api/v1/organizers/"+s.Organizer.Slug, "", nil)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Acme Events", gjson.Get(w.Body.String(), "data.name").String())
	})

	s.Run("Should return 404 for an unknown slug", func() {
		w := s.jsonReq("GET", "/api/v1/organizers/nobody-here", "", nil)
		assert.Equal(s.T(), 404, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
