package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/model"
)

// fakeBackend 记录收到的请求，按 handler 返回响应
type fakeBackend struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]interface{}
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, r)
	b.bodies = append(b.bodies, body)
	h := b.handler
	b.mu.Unlock()
	h(w, r)
}

func (b *fakeBackend) set(h func(w http.ResponseWriter, r *http.Request)) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

func (b *fakeBackend) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *fakeBackend) last() (*http.Request, map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1], b.bodies[len(b.bodies)-1]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Alert(_ context.Context, message string) {
	a.mu.Lock()
	a.messages = append(a.messages, message)
	a.mu.Unlock()
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

func newTestConsole(t *testing.T, backend *fakeBackend, alerter Alerter, confirm bool) *Console {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.BackendConfig{
		BaseURL:         srv.URL,
		APIKey:          "backend-key",
		TimeoutSeconds:  2,
		CategoryPath:    "category",
		QuestionSetPath: "question-set",
		QuestionPath:    "add-question",
		QuestionFilter:  "question_set_id",
	}
	client := NewBackendClient(cfg, srv.Client())
	confirmer := ConfirmFunc(func(context.Context, string) bool { return confirm })
	return NewConsole(cfg, nil, client, alerter, confirmer)
}

func TestListReplacesOnSuccessAndKeepsOnFailure(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []model.Category{{ID: "1", NameEN: "Animals", NameVI: "Động vật"}},
		})
	}
	alerter := &recordingAlerter{}
	console := newTestConsole(t, backend, alerter, true)
	ctx := context.Background()

	items, err := console.Categories.List(ctx, "")
	if err != nil || len(items) != 1 {
		t.Fatalf("List() = %v, %v", items, err)
	}

	req, _ := backend.last()
	if got := req.Header.Get("Authorization"); got != "Bearer backend-key" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID")
	}

	failures := []func(w http.ResponseWriter, r *http.Request){
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>oops</html>")) },
		func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, map[string]interface{}{}) },
		func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, map[string]interface{}{"data": nil}) },
	}
	for i, h := range failures {
		backend.set(h)
		if _, err := console.Categories.List(ctx, ""); err == nil {
			t.Fatalf("failure %d: expected error", i)
		}
		var te *TransportError
		if _, err := console.Categories.List(ctx, ""); !errors.As(err, &te) {
			t.Fatalf("failure %d: expected TransportError, got %v", i, err)
		}
		if got := console.Categories.Items(); len(got) != 1 || got[0].ID != "1" {
			t.Fatalf("failure %d mutated list: %v", i, got)
		}
	}
	if alerter.count() != 2*len(failures) {
		t.Errorf("alerts = %d, want %d", alerter.count(), 2*len(failures))
	}
	if console.Categories.State().Loading {
		t.Errorf("loading flag left set")
	}

	backend.set(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []model.Category{{ID: "2"}, {ID: "3"}},
		})
	})
	items, _ = console.Categories.List(ctx, "")
	if len(items) != 2 || items[0].ID != "2" {
		t.Fatalf("list not replaced: %v", items)
	}
}

func TestCreateWithBlankFieldNeverDispatches(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}}
	alerter := &recordingAlerter{}
	console := newTestConsole(t, backend, alerter, true)

	err := console.Categories.Create(context.Background(), model.CategoryPayload{NameEN: "Animals"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if backend.total() != 0 {
		t.Fatalf("dispatched %d requests", backend.total())
	}
	if alerter.count() != 1 {
		t.Errorf("alerts = %d", alerter.count())
	}
}

func TestCreateMultipleChoiceOptions(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]string{"id": "q1"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []model.Question{}})
	}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)
	ctx := context.Background()

	payload := model.QuestionPayload{
		QuestionEN:  "Which is a fruit?",
		QuestionVI:  "Đâu là trái cây?",
		VariantName: string(model.VariantMultipleChoice),
	}
	if err := console.Questions.Create(ctx, payload); err == nil {
		t.Fatalf("expected validation error with zero options")
	}
	if backend.total() != 0 {
		t.Fatalf("zero options dispatched %d requests", backend.total())
	}

	payload.Options = []model.OptionPayload{{TextEN: "Apple", TextVI: "Táo"}}
	if err := console.Questions.Create(ctx, payload); err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if backend.count(http.MethodPost) != 1 {
		t.Fatalf("POST count = %d", backend.count(http.MethodPost))
	}
	if backend.count(http.MethodGet) != 1 {
		t.Fatalf("refresh count = %d, want 1", backend.count(http.MethodGet))
	}

	backend.mu.Lock()
	body := backend.bodies[0]
	backend.mu.Unlock()
	if body["question_variant_name"] != "multiple_choice" {
		t.Errorf("body = %v", body)
	}
	if opts, ok := body["question_variant_options"].([]interface{}); !ok || len(opts) != 1 {
		t.Errorf("options = %v", body["question_variant_options"])
	}
}

func TestCreateOpenEndedSendsEmptyOptions(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []model.Question{}})
	}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)

	err := console.Questions.Create(context.Background(), model.QuestionPayload{
		QuestionEN:  "Describe your day",
		QuestionVI:  "Mô tả một ngày của bạn",
		VariantName: string(model.VariantOpenEnded),
		Options:     []model.OptionPayload{{TextEN: "leftover"}},
	})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}

	backend.mu.Lock()
	body := backend.bodies[0]
	backend.mu.Unlock()
	opts, ok := body["question_variant_options"].([]interface{})
	if !ok || len(opts) != 0 {
		t.Fatalf("options = %#v, want empty array", body["question_variant_options"])
	}
}

func TestBackendRejectionKeepsState(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": []model.Category{{ID: "1"}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
	}
	alerter := &recordingAlerter{}
	console := newTestConsole(t, backend, alerter, true)
	ctx := context.Background()
	console.Categories.List(ctx, "")

	err := console.Categories.Create(ctx, model.CategoryPayload{NameEN: "a", NameVI: "b"})
	var re *BackendRejectedError
	if !errors.As(err, &re) {
		t.Fatalf("expected BackendRejectedError, got %v", err)
	}
	if err := console.Categories.Remove(ctx, "1"); !errors.As(err, &re) {
		t.Fatalf("expected BackendRejectedError on delete, got %v", err)
	}
	if backend.count(http.MethodGet) != 1 {
		t.Fatalf("failed writes triggered refresh: %d GETs", backend.count(http.MethodGet))
	}
	if got := console.Categories.Items(); len(got) != 1 {
		t.Fatalf("list changed: %v", got)
	}
	if alerter.count() != 2 {
		t.Fatalf("alerts = %d", alerter.count())
	}
	alerter.mu.Lock()
	first := alerter.messages[0]
	alerter.mu.Unlock()
	if first != "Error creating category" {
		t.Errorf("alert = %q", first)
	}
}

func TestFilterChangeScopesQuestions(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		set := r.URL.Query().Get("question_set_id")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []model.Question{{ID: "q-" + set, QuestionSetID: set}},
		})
	}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)
	ctx := context.Background()

	if _, err := console.Questions.SetFilter(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	items, err := console.Questions.SetFilter(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range items {
		if q.QuestionSetID != "B" {
			t.Fatalf("question %s outside filter B", q.ID)
		}
	}
	if console.Questions.Filter() != "B" {
		t.Fatalf("Filter() = %q", console.Questions.Filter())
	}

	// 相同过滤键不重复请求
	before := backend.total()
	console.Questions.SetFilter(ctx, "B")
	if backend.total() != before {
		t.Fatalf("unchanged filter refetched")
	}

	console.Questions.SetFilter(ctx, "")
	req, _ := backend.last()
	if req.URL.Query().Has("question_set_id") {
		t.Fatalf("empty filter sent query %q", req.URL.RawQuery)
	}
}

func TestFailedFilterSwitchRetriesSameKey(t *testing.T) {
	backend := &fakeBackend{}
	serveSet := func(w http.ResponseWriter, r *http.Request) {
		set := r.URL.Query().Get("question_set_id")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []model.Question{{ID: "q-" + set, QuestionSetID: set}},
		})
	}
	backend.set(serveSet)
	console := newTestConsole(t, backend, &recordingAlerter{}, true)
	ctx := context.Background()

	if _, err := console.Questions.SetFilter(ctx, "A"); err != nil {
		t.Fatal(err)
	}

	backend.set(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := console.Questions.SetFilter(ctx, "B"); err == nil {
		t.Fatal("expected failure while switching to B")
	}
	if items := console.Questions.Items(); len(items) != 1 || items[0].QuestionSetID != "A" {
		t.Fatalf("failed switch replaced the list: %+v", items)
	}

	// 重试同一过滤键必须重新请求
	backend.set(serveSet)
	before := backend.total()
	items, err := console.Questions.SetFilter(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if backend.total() != before+1 {
		t.Fatalf("retry of B did not reach the backend")
	}
	if len(items) != 1 || items[0].QuestionSetID != "B" {
		t.Fatalf("retry returned %+v", items)
	}
}

func TestStateReportsSelection(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": model.Category{ID: "7", NameEN: "Food", NameVI: "Thức ăn"},
		})
	})
	console := newTestConsole(t, backend, &recordingAlerter{}, true)
	ctx := context.Background()

	st := console.Categories.State()
	if st.Loading || st.FetchingOne || st.Selected != nil {
		t.Fatalf("initial state = %+v", st)
	}
	if _, err := console.Categories.GetOne(ctx, "7"); err != nil {
		t.Fatal(err)
	}
	st = console.Categories.State()
	if st.Selected == nil || st.Selected.ID != "7" {
		t.Fatalf("selected = %+v", st.Selected)
	}
	console.Categories.ClearSelected()
	if console.Categories.State().Selected != nil {
		t.Fatal("selection not cleared")
	}
}

func TestRemoveConfirmedRefetchesOnce(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			if r.URL.Query().Get("id") != "42" {
				t.Errorf("delete id = %q", r.URL.Query().Get("id"))
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []model.QuestionSet{}})
	}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)

	if err := console.QuestionSets.Remove(context.Background(), "42"); err != nil {
		t.Fatalf("Remove() = %v", err)
	}
	if backend.count(http.MethodDelete) != 1 {
		t.Fatalf("DELETE count = %d", backend.count(http.MethodDelete))
	}
	if backend.count(http.MethodGet) != 1 {
		t.Fatalf("refetch count = %d, want exactly 1", backend.count(http.MethodGet))
	}
}

func TestRemoveNotConfirmed(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}}
	console := newTestConsole(t, backend, &recordingAlerter{}, false)

	if err := console.QuestionSets.Remove(context.Background(), "42"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Remove() = %v", err)
	}
	if backend.total() != 0 {
		t.Fatalf("unconfirmed delete dispatched")
	}
}

func TestContextConfirmer(t *testing.T) {
	var c ContextConfirmer
	if c.Confirm(context.Background(), DeletePrompt) {
		t.Fatalf("bare context confirmed")
	}
	if !c.Confirm(WithConfirmation(context.Background()), DeletePrompt) {
		t.Fatalf("confirmed context rejected")
	}
}

func TestGetOneSelectsEntity(t *testing.T) {
	backend := &fakeBackend{handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": model.Question{
				ID:              r.URL.Query().Get("id"),
				QuestionVariant: []model.QuestionVariant{{Name: "multiple_choice", Options: []model.Option{{TextEN: "a", TextVI: "b"}}}},
			},
		})
	}}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)

	q, err := console.Questions.GetOne(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	st := console.Questions.State()
	if st.Selected == nil || st.Selected.ID != "7" || q.ID != "7" {
		t.Fatalf("selected = %+v", st.Selected)
	}
	selected := *st.Selected
	if p := selected.Payload(); p.VariantName != "multiple_choice" || len(p.Options) != 1 {
		t.Fatalf("Payload() = %+v", p)
	}
	if st.FetchingOne || st.Loading {
		t.Fatalf("flags left set")
	}
}

func TestStaleListResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{}
	backend.handler = func(w http.ResponseWriter, r *http.Request) {
		set := r.URL.Query().Get("question_set_id")
		if set == "slow" {
			<-release
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []model.Question{{ID: "q-" + set, QuestionSetID: set}},
		})
	}
	console := newTestConsole(t, backend, &recordingAlerter{}, true)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := console.Questions.List(ctx, "slow")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !console.Questions.State().Loading && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	for backend.total() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := console.Questions.List(ctx, "fast"); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale List() = %v, want ErrSuperseded", err)
	}
	items := console.Questions.Items()
	if len(items) != 1 || items[0].QuestionSetID != "fast" {
		t.Fatalf("items = %v", items)
	}
}

func TestQuestionSetOptions(t *testing.T) {
	opts := QuestionSetOptions([]model.QuestionSet{
		{ID: "1", NameEN: "Basics", NameVI: "Cơ bản"},
		{ID: "2", NameEN: "Advanced"},
		{ID: "3"},
	})
	want := []string{"Cơ bản", "Advanced", "3"}
	for i, o := range opts {
		if o.Label != want[i] || o.Value != []string{"1", "2", "3"}[i] {
			t.Errorf("option %d = %+v", i, o)
		}
	}
	if got := QuestionSetOptions(nil); got == nil || len(got) != 0 {
		t.Errorf("nil input should project to empty slice")
	}
}
