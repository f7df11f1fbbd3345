package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"orma/internal/config"
	"orma/internal/models"
	"orma/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	srv       *Server
	app       *fiber.App
	db        *gorm.DB
	store     *testutil.ObjectStoreStub
	jobs      *testutil.PublisherStub
	pay       *testutil.PaymentStub
	workerKey *rsa.PrivateKey
	owner     *models.User
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	db := testutil.OpenSQLite(t)
	require.NoError(t, db.Create(&models.PricingTier{Name: "Free", Cost: models.FreeTierCost, GuestCount: 1}).Error)
	require.NoError(t, db.Create(&models.Category{ID: 1, Name: "Cake Cutting", Score: 5}).Error)
	require.NoError(t, db.Create(&models.Category{ID: 2, Name: "First Dance", Score: 8}).Error)
	owner := &models.User{Phone: "15550001", Name: "Host"}
	require.NoError(t, db.Create(owner).Error)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "development",
		Port:             "0",
		JWTSecret:        "test-secret-that-is-long-enough-123",
		AllowedOrigins:   "*",
		AssetBaseURL:     "https://cdn.example.com/",
		FeatureFlags:     "live_feed=on",
		MachinePublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
	for _, m := range mutate {
		m(cfg)
	}

	h := &harness{
		db:        db,
		store:     &testutil.ObjectStoreStub{},
		jobs:      &testutil.PublisherStub{},
		pay:       &testutil.PaymentStub{},
		workerKey: key,
		owner:     owner,
	}
	h.srv, err = NewServerWithDeps(cfg, db, rdb, Integrations{
		Storage:  h.store,
		Jobs:     h.jobs,
		SMS:      &testutil.SMSStub{},
		Payments: h.pay,
	})
	require.NoError(t, err)
	h.app = h.srv.NewApp()
	return h
}

func (h *harness) token(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := h.srv.generateToken(userID)
	require.NoError(t, err)
	return tok
}

func (h *harness) workerToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "image-worker",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := tok.SignedString(h.workerKey)
	require.NoError(t, err)
	return signed
}

func (h *harness) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(t *testing.T, method, target, token string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, target, token string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func (h *harness) seedEvent(t *testing.T, hash string, date time.Time) *models.Event {
	t.Helper()
	var tier models.PricingTier
	require.NoError(t, h.db.First(&tier).Error)
	event := &models.Event{
		EventHash:     hash,
		Name:          "Wedding",
		UserID:        h.owner.ID,
		EventDate:     date,
		PricingTierID: tier.ID,
	}
	require.NoError(t, h.db.Create(event).Error)
	return event
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, status)

	status, body := h.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"redis":"healthy"`)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me", "", nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me", "not-a-token", nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	// Tokens signed for the worker are not user sessions.
	status, _ = h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me", h.workerToken(t), nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	tok := h.token(t, h.owner.ID)
	status, body := h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me", tok, nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, h.owner.Phone, decode[models.User](t, body).Phone)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, h.owner.ID)

	status, body := h.do(t, jsonRequest(t, http.MethodPost, "/api/users/logout", tok, nil))
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me", tok, nil))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "revoked")
}

func TestDevelopmentLogin(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, jsonRequest(t, http.MethodPost, "/api/users/register/start", "",
		map[string]string{"phone": "40712345678"}))
	require.Equal(t, http.StatusOK, status, string(body))
	start := decode[map[string]any](t, body)
	assert.Equal(t, "development", start["request_id"])
	assert.Equal(t, false, start["has_name"])

	status, _ = h.do(t, jsonRequest(t, http.MethodPost, "/api/users/register/verify", "",
		map[string]string{"request_id": "development", "code": "0000", "phone": "40712345678"}))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = h.do(t, jsonRequest(t, http.MethodPost, "/api/users/register/verify", "",
		map[string]string{"request_id": "development", "code": "2024", "phone": "40712345678", "name": "Ana"}))
	require.Equal(t, http.StatusOK, status, string(body))
	verified := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, body)
	require.NotEmpty(t, verified.Token)
	assert.Equal(t, "Ana", verified.User.Name)

	status, body = h.do(t, jsonRequest(t, http.MethodPut, "/api/users/me", verified.Token,
		map[string]string{"email": "ana@example.com"}))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "ana@example.com", decode[models.User](t, body).Email)
}

func TestStartRegistration_InvalidPhone(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, jsonRequest(t, http.MethodPost, "/api/users/register/start", "",
		map[string]string{"phone": "+40 712"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, body).Code)
}

func TestCreateEvent(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, h.owner.ID)
	img := testutil.TinyPNG(t, 8, 8)

	status, body := h.do(t, multipartRequest(t, "/api/events/", tok,
		map[string]string{"name": "Ana & Mihai", "event_date": "2024-06-01T12:00:00Z"},
		formFile{"banner", "banner.png", img},
		formFile{"profile_image", "me.png", img},
	))
	require.Equal(t, http.StatusCreated, status, string(body))
	event := decode[models.Event](t, body)
	assert.Len(t, event.EventHash, 40)
	assert.Equal(t, h.owner.ID, event.UserID)
	assert.Contains(t, event.BannerURL, "https://cdn.example.com/uploads/"+event.EventHash+"/banner/")
	assert.Len(t, h.store.Keys(), 2)

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me/events", tok, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Event](t, body), 1)

	status, _ = h.do(t, multipartRequest(t, "/api/events/", tok,
		map[string]string{"name": "No images", "event_date": "2024-06-01T12:00:00Z"}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, multipartRequest(t, "/api/events/", tok,
		map[string]string{"name": "Bad date", "event_date": "tomorrow"}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetEvent(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())

	status, body := h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123", nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Wedding", decode[models.Event](t, body).Name)

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/bad.hash", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSignedURL(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())

	status, body := h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/signed?key=abc123/1-photo.jpg", nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "https://signed.example.com/uploads/abc123/1-photo.jpg")

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/signed", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

// Upload, process and read back a photo through the public API.
func TestUpgradeTier(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())
	party := &models.PricingTier{Name: "Party", Cost: "49", GuestCount: 50}
	require.NoError(t, h.db.Create(party).Error)
	guest := &models.User{Phone: "15550009", Name: "Guest"}
	require.NoError(t, h.db.Create(guest).Error)
	payload := map[string]any{"pricing_tier_id": party.ID, "payment_method": "pm_card_visa"}

	status, _ := h.do(t, jsonRequest(t, http.MethodPost, "/api/events/abc123/upgrade", "", payload))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodPost, "/api/events/abc123/upgrade", h.token(t, guest.ID), payload))
	assert.Equal(t, http.StatusForbidden, status)

	h.pay.Err = models.NewPaymentFailedError("Your card was declined.")
	status, body := h.do(t, jsonRequest(t, http.MethodPost, "/api/events/abc123/upgrade", h.token(t, h.owner.ID), payload))
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, models.CodePaymentFailed, decode[models.ErrorResponse](t, body).Code)

	h.pay.Err = nil
	status, body = h.do(t, jsonRequest(t, http.MethodPost, "/api/events/abc123/upgrade", h.token(t, h.owner.ID), payload))
	require.Equal(t, http.StatusOK, status, string(body))
	res := decode[map[string]json.RawMessage](t, body)
	assert.Contains(t, string(res["payment"]), "pi_test")
	require.Len(t, h.pay.Charges(), 1)
	assert.Equal(t, int64(4900), h.pay.Charges()[0].AmountCents)

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/events/abc123/check-limit", h.token(t, h.owner.ID), nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1000), decode[models.CapacityStatus](t, body).Limit)
}

func TestUploadProcessAndFeed(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())
	guest := &models.User{Phone: "15550002", Name: "Guest"}
	require.NoError(t, h.db.Create(guest).Error)
	tok := h.token(t, guest.ID)

	status, body := h.do(t, multipartRequest(t, "/api/events/abc123/upload", tok,
		map[string]string{
			"category_id":   "2",
			"original_date": "2024-06-01T14:40:00Z",
			"timezone":      "Europe/Bucharest",
		},
		formFile{"image", "IMG_001.png", testutil.TinyPNG(t, 8, 8)},
	))
	require.Equal(t, http.StatusCreated, status, string(body))
	uploaded := decode[struct {
		Post struct {
			ID       uint   `json:"id"`
			ImageURL string `json:"image_url"`
		} `json:"post"`
	}](t, body)
	require.NotZero(t, uploaded.Post.ID)
	require.Len(t, h.jobs.Messages(), 1)

	slot := "2024-06-01T15:00:00Z"
	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/feed", nil))
	require.Equal(t, http.StatusOK, status, string(body))
	index := decode[models.FeedIndex](t, body)
	require.Len(t, index.Timeslots, 1)
	assert.Equal(t, slot, index.Timeslots[0].UTC().Format(time.RFC3339))
	assert.False(t, index.LatestFull)

	// Not processed yet, so the timeslot page is empty.
	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/feed/"+slot, nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[[]models.FeedPageEntry](t, body))

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/events/abc123/pending", tok, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.AssetView](t, body), 1)

	worker := h.workerToken(t)
	status, body = h.do(t, jsonRequest(t, http.MethodGet,
		"/api/lambda/post?post_id="+strconv.Itoa(int(uploaded.Post.ID)), worker, nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.PostStatusReadyForProcessing, decode[models.Post](t, body).Status)

	status, body = h.do(t, jsonRequest(t, http.MethodPost, "/api/lambda/post", worker, map[string]any{
		"post_id":         uploaded.Post.ID,
		"status":          "COMPLETED",
		"small_image_url": "abc123/small.webp",
		"description":     "First dance",
	}))
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/feed/"+slot, nil))
	require.Equal(t, http.StatusOK, status, string(body))
	entries := decode[[]models.FeedPageEntry](t, body)
	require.Len(t, entries, 1)
	assert.Equal(t, uploaded.Post.ID, entries[0].PostID)
	assert.Equal(t, float64(8), entries[0].Score)
	assert.Equal(t, uploaded.Post.ImageURL, entries[0].Post.ImageURL)

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/feed/memories", nil))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Len(t, decode[[]models.MemoryEntry](t, body), 1)

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/posts", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.AssetView](t, body), 1)

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/feed/yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpload_Rejections(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "old", time.Now().UTC().Add(-200*time.Hour))
	h.seedEvent(t, "abc123", time.Now().UTC())
	guest := &models.User{Phone: "15550002", Name: "Guest"}
	require.NoError(t, h.db.Create(guest).Error)
	tok := h.token(t, guest.ID)
	fields := map[string]string{
		"category_id":   "1",
		"original_date": "2024-06-01T14:40:00Z",
		"timezone":      "UTC",
	}

	status, body := h.do(t, multipartRequest(t, "/api/events/old/upload", tok, fields,
		formFile{"image", "a.png", testutil.TinyPNG(t, 8, 8)}))
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, models.CodeEventExpired, decode[models.ErrorResponse](t, body).Code)

	status, body = h.do(t, multipartRequest(t, "/api/events/abc123/upload", tok,
		map[string]string{"category_id": "x", "original_date": "2024-06-01T14:40:00Z", "timezone": "UTC"},
		formFile{"image", "a.png", testutil.TinyPNG(t, 8, 8)}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[models.ErrorResponse](t, body).Error, "category_id")

	status, _ = h.do(t, multipartRequest(t, "/api/events/abc123/upload", tok, fields))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, multipartRequest(t, "/api/events/abc123/upload", "", fields,
		formFile{"image", "a.png", testutil.TinyPNG(t, 8, 8)}))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, h.jobs.Messages())
}

func TestLambdaRoutes_RequireWorkerToken(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, jsonRequest(t, http.MethodGet, "/api/lambda/post?post_id=1", "", nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodGet, "/api/lambda/post?post_id=1", h.token(t, h.owner.ID), nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodGet, "/api/lambda/post", h.workerToken(t), nil))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodPost, "/api/lambda/post", h.workerToken(t),
		map[string]any{"post_id": 99, "status": "DONE"}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLambdaRoutes_DisabledWithoutKey(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.MachinePublicKey = "" })

	status, _ := h.do(t, jsonRequest(t, http.MethodGet, "/api/lambda/post?post_id=1", h.workerToken(t), nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestNewServerWithDeps_RequiresIntegrations(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil, Integrations{})
	assert.Error(t, err)
}

func TestCommentsAndLikes(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())
	post := &models.Post{
		EventHash:  "abc123",
		UserID:     h.owner.ID,
		UploadURL:  "abc123/photo.jpg",
		CapturedAt: time.Now().UTC(),
		Status:     models.PostStatusCompleted,
		CategoryID: 1,
	}
	require.NoError(t, h.db.Create(post).Error)
	base := "/api/events/abc123/posts/" + strconv.Itoa(int(post.ID))
	tok := h.token(t, h.owner.ID)

	status, body := h.do(t, jsonRequest(t, http.MethodPost, base+"/comments", tok, map[string]string{"content": "Lovely"}))
	require.Equal(t, http.StatusCreated, status, string(body))
	comment := decode[models.Comment](t, body)

	status, body = h.do(t, jsonRequest(t, http.MethodPut,
		base+"/comments/"+strconv.Itoa(int(comment.ID)), tok, map[string]string{"content": "Lovely!"}))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Lovely!", decode[models.Comment](t, body).Content)

	status, _ = h.do(t, jsonRequest(t, http.MethodPost, base+"/comments", tok, map[string]string{"content": "  "}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, base+"/comments", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Comment](t, body), 1)

	status, body = h.do(t, jsonRequest(t, http.MethodPost, base+"/like", tok, nil))
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = h.do(t, jsonRequest(t, http.MethodPost, base+"/like", tok, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), decode[models.LikeSummary](t, body).Count)

	status, body = h.do(t, jsonRequest(t, http.MethodGet, base+"/likes", tok, nil))
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[models.LikeSummary](t, body).Liked)

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, base+"/likes", nil))
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[models.LikeSummary](t, body).Liked)

	status, _ = h.do(t, jsonRequest(t, http.MethodDelete,
		base+"/comments/"+strconv.Itoa(int(comment.ID)), tok, nil))
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = h.do(t, jsonRequest(t, http.MethodDelete, base, tok, nil))
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/posts/zero", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecentlyViewed(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())
	tok := h.token(t, h.owner.ID)

	status, body := h.do(t, jsonRequest(t, http.MethodPost, "/api/users/me/recently-viewed", tok,
		map[string]string{"event_hash": "abc123"}))
	require.Equal(t, http.StatusNoContent, status, string(body))

	status, _ = h.do(t, jsonRequest(t, http.MethodPost, "/api/users/me/recently-viewed", tok,
		map[string]string{"event_hash": "missing"}))
	assert.Equal(t, http.StatusNotFound, status)

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/users/me/recently-viewed", tok, nil))
	require.Equal(t, http.StatusOK, status)
	events := decode[[]models.Event](t, body)
	require.Len(t, events, 1)
	assert.Equal(t, "abc123", events[0].EventHash)
}

func TestCatalogAndFlags(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Category](t, body), 2)

	status, body = h.do(t, httptest.NewRequest(http.MethodGet, "/api/pricing", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.PricingTier](t, body), 1)

	status, body = h.do(t, jsonRequest(t, http.MethodGet, "/api/feature-flags", h.token(t, h.owner.ID), nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]bool{"live_feed": true}, decode[map[string]bool](t, body))
}

func TestLiveFeed(t *testing.T) {
	h := newHarness(t)
	h.seedEvent(t, "abc123", time.Now().UTC())

	status, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/live", nil))
	assert.Equal(t, http.StatusUpgradeRequired, status)

	off := newHarness(t, func(c *config.Config) { c.FeatureFlags = "live_feed=off" })
	status, _ = off.do(t, httptest.NewRequest(http.MethodGet, "/api/events/abc123/live", nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "post comment ID", humanizeParam("postCommentId"))
	assert.Equal(t, "hash", humanizeParam("hash"))
}

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(parsePage(c)))
	})

	tests := map[string]string{"": "1", "?page=3": "3", "?page=0": "1", "?page=-2": "1", "?page=x": "1"}
	for query, want := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body), query)
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2024-06-01T15%3A00%3A00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)))

	_, err = parseTime("")
	assert.Error(t, err)
}
