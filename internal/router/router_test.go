package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"geckohub/internal/adapters/auth/jwt"
	"geckohub/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tokens, err := jwt.NewManager(jwt.Options{
		Secret:     "test-secret",
		Issuer:     "geckohub-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		Tokens:       tokens,
		DevMode:      true,
		IsAdminEmail: func(email string) bool { return email == "admin@example.com" },
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_ListAnimals_ScopedByOwner(t *testing.T) {
	ts := newTestServer(t)

	a := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango"})
	b := createAnimal(t, ts.URL, "2", map[string]any{"name": "Kiwi"})

	// Dueño ve el suyo, no el ajeno
	ids := listAnimalIDs(t, ts.URL, "1", false)
	if !containsID(ids, a) || containsID(ids, b) {
		t.Fatalf("owner 1 list: expected only %d, got %v", a, ids)
	}

	// Admin ve todos
	ids = listAnimalIDs(t, ts.URL, "99", true)
	if !containsID(ids, a) || !containsID(ids, b) {
		t.Fatalf("admin list: expected both animals, got %v", ids)
	}

	// Anónimo => lista vacía (200)
	ids = listAnimalIDs(t, ts.URL, "", false)
	if len(ids) != 0 {
		t.Fatalf("anonymous list: expected empty, got %v", ids)
	}
}

func TestHTTP_GetAnimal_VisibleToEveryone(t *testing.T) {
	ts := newTestServer(t)

	id := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango"})

	for _, caller := range []string{"1", "2", ""} {
		st, body := doReq(t, ts.URL, "GET", "/animals/"+itoa(id), caller, nil)
		if st != http.StatusOK {
			t.Fatalf("caller %q: expected 200, got %d body=%s", caller, st, string(body))
		}
	}

	st, _ := doReq(t, ts.URL, "GET", "/animals/424242", "1", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown animal, got %d", st)
	}
}

func TestHTTP_CreateAnimal_IgnoresSuppliedOwner(t *testing.T) {
	ts := newTestServer(t)

	st, body := doReq(t, ts.URL, "POST", "/animals", "1", map[string]any{
		"name":  "X",
		"owner": 2,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}

	var resp struct {
		Owner *int64 `json:"owner"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Owner == nil || *resp.Owner != 1 {
		t.Fatalf("expected owner 1, got %v body=%s", resp.Owner, string(body))
	}
}

func TestHTTP_Anonymous_CannotMutate(t *testing.T) {
	ts := newTestServer(t)

	st, _ := doReq(t, ts.URL, "POST", "/animals", "", map[string]any{"name": "X"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous create, got %d", st)
	}

	id := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango"})
	st, _ = doReq(t, ts.URL, "PATCH", "/animals/"+itoa(id), "", map[string]any{"name": "Y"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous patch, got %d", st)
	}
}

func TestHTTP_MutateAnimal_OwnerOrAdmin(t *testing.T) {
	ts := newTestServer(t)

	id := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango", "weight": 40.5})

	// Ajeno => 403
	st, _ := doReq(t, ts.URL, "PATCH", "/animals/"+itoa(id), "2", map[string]any{"name": "Stolen"})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 patch by stranger, got %d", st)
	}

	// Dueño => 200; null limpia weight
	st, body := doReq(t, ts.URL, "PATCH", "/animals/"+itoa(id), "1", map[string]any{"morph": "Lilly White", "weight": nil})
	if st != http.StatusOK {
		t.Fatalf("expected 200 patch by owner, got %d body=%s", st, string(body))
	}
	var resp struct {
		Name   string   `json:"name"`
		Morph  string   `json:"morph"`
		Weight *float64 `json:"weight"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Name != "Mango" || resp.Morph != "Lilly White" || resp.Weight != nil {
		t.Fatalf("unexpected patched animal: %s", string(body))
	}

	// Admin => 200
	st, _ = doReq(t, ts.URL, "PATCH", "/animals/"+itoa(id), "99", map[string]any{"name": "Renamed"}, adminHeader)
	if st != http.StatusOK {
		t.Fatalf("expected 200 patch by admin, got %d", st)
	}

	// Validación => 400 con field
	st, body = doReq(t, ts.URL, "PATCH", "/animals/"+itoa(id), "1", map[string]any{"gender": "Robot"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid gender, got %d", st)
	}
	var verr struct {
		Field string `json:"field"`
	}
	_ = json.Unmarshal(body, &verr)
	if verr.Field != "gender" {
		t.Fatalf("expected field gender, got %s", string(body))
	}
}

func TestHTTP_AnimalDetail_IncludesParentsAndHistory(t *testing.T) {
	ts := newTestServer(t)

	sire := createAnimal(t, ts.URL, "2", map[string]any{"name": "Papa", "gender": "Male"})
	dam := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mama", "gender": "Female"})
	child := createAnimal(t, ts.URL, "1", map[string]any{"name": "Baby", "sire": sire, "dam": dam})

	createEvent(t, ts.URL, "1", map[string]any{"subject": dam, "type": "Mating", "date": "2024-05-01", "partner": sire})
	createEvent(t, ts.URL, "1", map[string]any{"subject": child, "type": "Feeding", "date": "2024-05-03"})

	st, body := doReq(t, ts.URL, "GET", "/animals/"+itoa(child), "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var detail struct {
		SireDetail *struct {
			Name string `json:"name"`
		} `json:"sire_detail"`
		DamDetail *struct {
			Name string `json:"name"`
		} `json:"dam_detail"`
		Logs []struct {
			Type string `json:"type"`
		} `json:"logs"`
	}
	_ = json.Unmarshal(body, &detail)
	if detail.SireDetail == nil || detail.SireDetail.Name != "Papa" {
		t.Fatalf("missing sire_detail: %s", string(body))
	}
	if detail.DamDetail == nil || detail.DamDetail.Name != "Mama" {
		t.Fatalf("missing dam_detail: %s", string(body))
	}
	if len(detail.Logs) != 1 || detail.Logs[0].Type != "Feeding" {
		t.Fatalf("unexpected logs: %s", string(body))
	}

	// El sire (de otro dueño) ve el apareamiento como partner
	hist := historyIDs(t, ts.URL, sire)
	if len(hist) != 1 {
		t.Fatalf("expected mating in sire history, got %v", hist)
	}

	// Crías
	st, body = doReq(t, ts.URL, "GET", "/animals/"+itoa(dam)+"/children", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), `"Baby"`) {
		t.Fatalf("expected Baby in children, got %d body=%s", st, string(body))
	}
}

func TestHTTP_History_OrderedByDateThenID(t *testing.T) {
	ts := newTestServer(t)

	a := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango"})
	e1 := createEvent(t, ts.URL, "1", map[string]any{"subject": a, "type": "Feeding", "date": "2024-05-01"})
	e2 := createEvent(t, ts.URL, "1", map[string]any{"subject": a, "type": "Weight", "date": "2024-05-03", "weight": 41})
	e3 := createEvent(t, ts.URL, "1", map[string]any{"subject": a, "type": "Shedding", "date": "2024-05-01"})

	got := historyIDs(t, ts.URL, a)
	want := []int64{e2, e3, e1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestHTTP_DeleteAnimal_CascadesAndNullifies(t *testing.T) {
	ts := newTestServer(t)

	female := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mama", "gender": "Female"})
	male := createAnimal(t, ts.URL, "1", map[string]any{"name": "Papa", "gender": "Male"})

	own := createEvent(t, ts.URL, "1", map[string]any{"subject": male, "type": "Feeding", "date": "2024-05-01"})
	mating := createEvent(t, ts.URL, "1", map[string]any{"subject": female, "type": "Mating", "date": "2024-05-02", "partner": male})

	st, _ := doReq(t, ts.URL, "DELETE", "/animals/"+itoa(male), "2", nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 delete by stranger, got %d", st)
	}
	st, _ = doReq(t, ts.URL, "DELETE", "/animals/"+itoa(male), "1", nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 delete by owner, got %d", st)
	}

	// Evento propio borrado
	st, _ = doReq(t, ts.URL, "GET", "/events/"+itoa(own), "1", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for cascaded event, got %d", st)
	}

	// Evento como partner sobrevive con partner = null
	st, body := doReq(t, ts.URL, "GET", "/events/"+itoa(mating), "1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 for partner event, got %d", st)
	}
	var ev struct {
		Partner *int64 `json:"partner"`
	}
	_ = json.Unmarshal(body, &ev)
	if ev.Partner != nil {
		t.Fatalf("expected partner null, got %v", *ev.Partner)
	}
}

func TestHTTP_Events_ScopedAndGuarded(t *testing.T) {
	ts := newTestServer(t)

	mine := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mango"})
	theirs := createAnimal(t, ts.URL, "2", map[string]any{"name": "Kiwi"})

	createEvent(t, ts.URL, "1", map[string]any{"subject": mine, "type": "Feeding", "date": "2024-05-01"})
	createEvent(t, ts.URL, "2", map[string]any{"subject": theirs, "type": "Feeding", "date": "2024-05-01"})

	// No se puede registrar eventos sobre un animal ajeno
	st, _ := doReq(t, ts.URL, "POST", "/events", "1", map[string]any{"subject": theirs, "type": "Feeding", "date": "2024-05-02"})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 event on foreign animal, got %d", st)
	}

	// Tipo desconocido => 400
	st, _ = doReq(t, ts.URL, "POST", "/events", "1", map[string]any{"subject": mine, "type": "Dance", "date": "2024-05-02"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 unknown type, got %d", st)
	}

	st, body := doReq(t, ts.URL, "GET", "/events", "1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list events, got %d", st)
	}
	var items []struct {
		Subject int64 `json:"subject"`
	}
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Subject != mine {
		t.Fatalf("expected only own events, got %s", string(body))
	}
}

func TestHTTP_Incubator_ComputesHatchDate(t *testing.T) {
	ts := newTestServer(t)

	a := createAnimal(t, ts.URL, "1", map[string]any{"name": "Mama", "gender": "Female"})
	id := createEvent(t, ts.URL, "1", map[string]any{
		"subject":         a,
		"type":            "Laying",
		"date":            "2024-05-01",
		"egg_count":       2,
		"incubation_temp": 25.0,
	})

	st, body := doReq(t, ts.URL, "GET", "/events/incubator", "1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var items []struct {
		ID                int64  `json:"id"`
		ExpectedHatchDate string `json:"expected_hatch_date"`
	}
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("expected laying in incubator, got %s", string(body))
	}
	// 25.0 C => 62 días
	if items[0].ExpectedHatchDate != "2024-07-02" {
		t.Fatalf("expected hatch 2024-07-02, got %s", items[0].ExpectedHatchDate)
	}
}

func TestHTTP_Settings_GetOrCreateIdempotent(t *testing.T) {
	ts := newTestServer(t)

	st, _ := doReq(t, ts.URL, "GET", "/settings", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous settings, got %d", st)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int64]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest("GET", ts.URL+"/settings", nil)
			req.Header.Set("X-Debug-User-ID", "7")
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Errorf("get settings: %v", err)
				return
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				t.Errorf("expected 200 settings, got %d", res.StatusCode)
				return
			}
			var s struct {
				ID int64 `json:"id"`
			}
			_ = json.NewDecoder(res.Body).Decode(&s)
			mu.Lock()
			ids[s.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(ids) != 1 {
		t.Fatalf("expected a single settings row, got %v", ids)
	}

	st, body := doReq(t, ts.URL, "POST", "/settings", "7", map[string]any{"feeding_days": []int{1, 3, 5}})
	if st != http.StatusOK || !strings.Contains(string(body), `"feeding_days":[1,3,5]`) {
		t.Fatalf("expected updated feeding_days, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/settings", "7", map[string]any{"feeding_days": []string{"Mon", "Thu"}})
	if st != http.StatusOK || !strings.Contains(string(body), `"feeding_days":["Mon","Thu"]`) {
		t.Fatalf("expected label feeding_days stored as sent, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/settings", "7", map[string]any{"feeding_days": "monday"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 non-list feeding_days, got %d", st)
	}
}

func TestHTTP_SocialLogin_ThenBearer(t *testing.T) {
	ts := newTestServer(t)

	login := func(email string) (string, int64) {
		st, body := doReq(t, ts.URL, "POST", "/auth/social-login", "", map[string]any{
			"provider": "google",
			"email":    email,
			"name":     "Gecko Fan",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 social login, got %d body=%s", st, string(body))
		}
		var resp struct {
			Access string `json:"access"`
			UserID int64  `json:"user_id"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Access == "" || resp.UserID == 0 {
			t.Fatalf("missing tokens: %s", string(body))
		}
		return resp.Access, resp.UserID
	}

	access, uid := login("fan@example.com")
	_, again := login("  FAN@example.com ")
	if again != uid {
		t.Fatalf("expected same user for same email, got %d and %d", uid, again)
	}

	st, body := doReq(t, ts.URL, "POST", "/animals", "", map[string]any{"name": "Mango"}, bearer(access))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 with bearer, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/animals", "", map[string]any{"name": "Mango"}, bearer("not-a-token"))
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad bearer, got %d", st)
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	st, _ := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}

	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "geckohub_http_requests_total") {
		t.Fatalf("expected http metrics, got %d", st)
	}
}

func createAnimal(t *testing.T, baseURL, userID string, payload map[string]any) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/animals", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create animal, got %d body=%s", st, string(body))
	}
	return decodeID(t, "create animal", body)
}

func createEvent(t *testing.T, baseURL, userID string, payload map[string]any) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/events", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create event, got %d body=%s", st, string(body))
	}
	return decodeID(t, "create event", body)
}

func listAnimalIDs(t *testing.T, baseURL, userID string, admin bool) []int64 {
	t.Helper()

	var opts []func(*http.Request)
	if admin {
		opts = append(opts, adminHeader)
	}
	st, body := doReq(t, baseURL, "GET", "/animals", userID, nil, opts...)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list animals, got %d body=%s", st, string(body))
	}
	return decodeIDs(t, body)
}

func historyIDs(t *testing.T, baseURL string, animalID int64) []int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/animals/"+itoa(animalID)+"/events", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 history, got %d body=%s", st, string(body))
	}
	return decodeIDs(t, body)
}

func decodeID(t *testing.T, op string, body []byte) int64 {
	t.Helper()

	var resp struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == 0 {
		t.Fatalf("%s: missing id body=%s", op, string(body))
	}
	return resp.ID
}

func decodeIDs(t *testing.T, body []byte) []int64 {
	t.Helper()

	var items []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("decode list: %v body=%s", err, string(body))
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func adminHeader(r *http.Request) { r.Header.Set("X-Debug-Admin", "true") }

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any, opts ...func(*http.Request)) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	for _, opt := range opts {
		opt(req)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
