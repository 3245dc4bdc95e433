package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"
	"wati-proxy/internal/proxy"
	"wati-proxy/internal/wati"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *proxy.Dispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	settings := database.NewSettingsStore(db)
	activity := database.NewActivityStore(db)
	dispatcher := proxy.NewDispatcher(settings, wati.NewClient(), activity)

	router := NewRouter(Deps{
		DB:           db,
		Contacts:     database.NewContactStore(db),
		Messages:     database.NewMessageStore(db),
		Campaigns:    database.NewCampaignStore(db),
		Templates:    database.NewTemplateStore(db),
		Settings:     settings,
		Activity:     activity,
		Dispatcher:   dispatcher,
		MaxBodyBytes: 1 << 20,
	})
	return &testServer{router: router, db: db, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/settings/foo", `{"value":{"a":1}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d body=%s", w.Code, w.Body)
	}

	w = s.do(t, http.MethodGet, "/api/settings/foo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	decode(t, w, &got)
	if got.Key != "foo" || string(got.Value) != `{"a":1}` {
		t.Errorf("got %s = %s", got.Key, got.Value)
	}

	if w := s.do(t, http.MethodGet, "/api/settings/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] == "" {
		t.Error("404 body missing error")
	}
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "")
	var root struct {
		Name      string            `json:"name"`
		Endpoints map[string]string `json:"endpoints"`
	}
	decode(t, w, &root)
	if root.Name != "WATI Proxy Server" || root.Endpoints["watiProxy"] == "" {
		t.Errorf("unexpected root descriptor %+v", root)
	}

	s.do(t, http.MethodPost, "/api/contacts", `{"name":"A","phone":"1"}`)
	w = s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var health map[string]interface{}
	decode(t, w, &health)
	if health["status"] != "ok" || health["database"] != "connected" || health["contacts_count"] != float64(1) {
		t.Errorf("unexpected health body %v", health)
	}

	_ = database.Close(s.db)
	w = s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("health with closed store = %d, want 500", w.Code)
	}
	decode(t, w, &health)
	if health["status"] != "error" || health["database"] != "disconnected" {
		t.Errorf("unexpected failure body %v", health)
	}
}

func TestProxyRequiresAction(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/api/wati-proxy", `{"data":{}}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing action status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/wati-proxy", `{"action":"dropTables"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid action status = %d, want 400", w.Code)
	}
}

func TestProxyMissingCredentials(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer upstream.Close()

	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/settings/wati_api_url", fmt.Sprintf(`{"value":%q}`, upstream.URL))

	w := s.do(t, http.MethodPost, "/api/wati-proxy", `{"action":"getContacts"}`)
	s.dispatcher.Wait()

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Error   string          `json:"error"`
		Details map[string]bool `json:"details"`
	}
	decode(t, w, &body)
	if body.Details["hasApiKey"] || !body.Details["hasApiUrl"] {
		t.Errorf("unexpected details %v", body.Details)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Error("outbound call made without credentials")
	}
}

func TestProxyPassThroughAndAudit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/api/v1/sendSessionMessage/905550000000" || body["messageText"] != "merhaba" {
			t.Errorf("unexpected upstream request %s %v", r.URL.Path, body)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"result":false,"info":"session expired"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/settings/wati_api_key", `{"value":"Bearer secret"}`)
	s.do(t, http.MethodPut, "/api/settings/wati_api_url", fmt.Sprintf(`{"value":%q}`, upstream.URL))

	w := s.do(t, http.MethodPost, "/api/wati-proxy",
		`{"action":"sendSessionMessage","data":{"phone":"905550000000","message":"merhaba"}}`)
	s.dispatcher.Wait()

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want provider's 422", w.Code)
	}
	if w.Body.String() != `{"result":false,"info":"session expired"}` {
		t.Errorf("body altered: %s", w.Body)
	}

	w = s.do(t, http.MethodGet, "/api/activity-logs", "")
	var logs []models.ActivityLog
	decode(t, w, &logs)
	if len(logs) != 1 || logs[0].Action != "wati_sendSessionMessage" {
		t.Fatalf("unexpected activity logs %+v", logs)
	}
	var details proxy.AuditDetails
	if err := json.Unmarshal(logs[0].Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Status != http.StatusUnprocessableEntity || details.Success || details.Method != http.MethodPost {
		t.Errorf("unexpected audit details %+v", details)
	}
}

func TestProxyNonJSONUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer upstream.Close()

	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/settings/wati_api_key", `{"value":"k"}`)
	s.do(t, http.MethodPut, "/api/settings/wati_api_url", fmt.Sprintf(`{"value":%q}`, upstream.URL))

	w := s.do(t, http.MethodPost, "/api/wati-proxy", `{"action":"getMessageTemplates"}`)
	s.dispatcher.Wait()
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] == "" || body["message"] == "" {
		t.Errorf("expected error and message, got %v", body)
	}
}

func TestContactsBulkAndSearch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/contacts/bulk", `{"contacts":[
		{"name":"Ali Veli","phone":"905551"},
		{"name":"Ayse","phone":"905552","company":"Kalipso"},
		{"name":"Ali Updated","phone":"905551","tags":["vip"]}
	]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status = %d body=%s", w.Code, w.Body)
	}
	var saved []models.Contact
	decode(t, w, &saved)
	if len(saved) != 2 {
		t.Fatalf("expected 2 rows after collapsing duplicates, got %d", len(saved))
	}

	w = s.do(t, http.MethodGet, "/api/contacts/search?q=ALI", "")
	var found []models.Contact
	decode(t, w, &found)
	if len(found) != 2 {
		t.Fatalf("search ALI matched %d rows, want 2 (name and company)", len(found))
	}
	for _, c := range found {
		if c.Phone == "905551" && (c.Name != "Ali Updated" || len(c.Tags) != 1) {
			t.Errorf("duplicate phone kept the wrong entry: %+v", c)
		}
	}

	w = s.do(t, http.MethodGet, "/api/contacts/search?q=%20%20", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty query = %d %s", w.Code, w.Body)
	}
}

func TestContactsBulkValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{"contacts":{"name":"x"}}`,
		`{}`,
		`{"contacts":[{"name":"no phone"}]}`,
	}
	for _, body := range cases {
		if w := s.do(t, http.MethodPost, "/api/contacts/bulk", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s -> %d, want 400", body, w.Code)
		}
	}
	w := s.do(t, http.MethodPost, "/api/contacts/bulk", `{"contacts":[]}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty batch = %d %s", w.Code, w.Body)
	}
}

func TestContactLifecycle(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/api/contacts", `{"name":"No Phone"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing phone status = %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/contacts", `{"name":"Zeynep","phone":"9001","email":"z@example.com"}`)
	var created models.Contact
	decode(t, w, &created)
	if created.ID == uuid.Nil || created.Tags == nil {
		t.Fatalf("unexpected created contact %+v", created)
	}

	w = s.do(t, http.MethodPut, "/api/contacts/"+created.ID.String(), `{"company":"Acme"}`)
	var updated models.Contact
	decode(t, w, &updated)
	if updated.Name != "Zeynep" || updated.Company == nil || *updated.Company != "Acme" {
		t.Errorf("partial update result %+v", updated)
	}

	if w := s.do(t, http.MethodPut, "/api/contacts/"+uuid.NewString(), `{"name":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("update unknown = %d, want 404", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/contacts/not-a-uuid", `{"name":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodDelete, "/api/contacts/"+created.ID.String(), "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("delete = %d %s", w.Code, w.Body)
	}
	if w := s.do(t, http.MethodDelete, "/api/contacts/"+created.ID.String(), ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestMessagesEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/contacts", `{"name":"Can","phone":"7001"}`)
	var contact models.Contact
	decode(t, w, &contact)

	w = s.do(t, http.MethodPost, "/api/messages",
		fmt.Sprintf(`{"contact_id":%q,"phone":"7001","message_text":"hi"}`, contact.ID))
	var msg models.Message
	decode(t, w, &msg)
	if msg.Status != models.StatusPending {
		t.Errorf("default status = %q", msg.Status)
	}

	path := fmt.Sprintf("/api/messages/%d/status", msg.ID)
	if w := s.do(t, http.MethodPut, path, `{"status":"exploded"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/messages/99999/status", `{"status":"sent"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown message = %d, want 404", w.Code)
	}
	w = s.do(t, http.MethodPut, path, `{"status":"failed","errorMessage":"rejected"}`)
	decode(t, w, &msg)
	if msg.Status != models.StatusFailed || msg.ErrorMessage == nil || *msg.ErrorMessage != "rejected" {
		t.Errorf("status update result %+v", msg)
	}

	w = s.do(t, http.MethodGet, "/api/messages?limit=abc", "")
	var list []map[string]interface{}
	decode(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("messages = %d", len(list))
	}
	embedded, ok := list[0]["contacts"].(map[string]interface{})
	if !ok || embedded["name"] != "Can" || embedded["phone"] != "7001" {
		t.Errorf("embedded contact = %v", list[0]["contacts"])
	}
}

func TestCampaignsAndTemplates(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/campaigns", `{"name":"Launch","recipients":["9001"]}`)
	var camp models.Campaign
	decode(t, w, &camp)
	if camp.Status != "draft" {
		t.Errorf("default status = %q", camp.Status)
	}
	w = s.do(t, http.MethodPut, "/api/campaigns/"+camp.ID.String(), `{"status":"sent","sent_count":1}`)
	decode(t, w, &camp)
	if camp.Status != "sent" || camp.SentCount != 1 || camp.Name != "Launch" {
		t.Errorf("campaign update %+v", camp)
	}

	w = s.do(t, http.MethodPost, "/api/templates", `{"name":"welcome","language":"tr"}`)
	var tmpl models.Template
	decode(t, w, &tmpl)
	w = s.do(t, http.MethodGet, "/api/templates", "")
	var all []models.Template
	decode(t, w, &all)
	if len(all) != 1 || all[0].ID != tmpl.ID {
		t.Errorf("templates = %+v", all)
	}
	if w := s.do(t, http.MethodDelete, "/api/templates/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Errorf("delete unknown template = %d", w.Code)
	}
}

func TestActivityLogsEndpoint(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/api/activity-logs", `{"details":{}}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing action = %d", w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/activity-logs", `{"action":"manual_note"}`)
	var entry models.ActivityLog
	decode(t, w, &entry)
	if string(entry.Details) != "{}" {
		t.Errorf("default details = %s", entry.Details)
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t)
	big := bytes.Repeat([]byte("a"), 2<<20)
	body := `{"value":"` + string(big) + `"}`
	if w := s.do(t, http.MethodPut, "/api/settings/big", body); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d, want 413", w.Code)
	}
}

func TestMessageWithoutContactListsNullContact(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/messages", `{"phone":"8001","message_text":"orphan"}`)

	w := s.do(t, http.MethodGet, "/api/messages", "")
	var list []map[string]json.RawMessage
	decode(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("messages = %d", len(list))
	}
	raw, ok := list[0]["contacts"]
	if !ok || string(raw) != "null" {
		t.Errorf("contacts key = %q present=%v, want null", raw, ok)
	}
}
