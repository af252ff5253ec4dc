package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	gatex "github.com/pattarin-dev/shopflow/agent/gate"
	"github.com/pattarin-dev/shopflow/agent/orchestrator"
	statex "github.com/pattarin-dev/shopflow/agent/state"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
	cartx "github.com/pattarin-dev/shopflow/cart"
	catalogx "github.com/pattarin-dev/shopflow/catalog"
)

type scriptedClassifier struct {
	verdict contractx.ClassifyResult
	err     error
}

func (s *scriptedClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	if s.err != nil {
		return contractx.ClassifyResult{}, s.err
	}
	return s.verdict, nil
}

type staticWriter struct{ reply string }

func (s *staticWriter) Write(ctx context.Context, req contractx.ReplyRequest) (string, error) {
	return s.reply, nil
}

type noopCheckout struct{}

func (noopCheckout) CreateCheckout(ctx context.Context, payload contractx.CheckoutPayload) (contractx.CheckoutResult, error) {
	return contractx.CheckoutResult{CheckoutID: "cs_test", CheckoutURL: "https://pay.example/cs_test"}, nil
}

func newTestServer(t *testing.T, classifier contractx.Classifier) *httptest.Server {
	t.Helper()

	sessions, err := statex.NewManager(statex.NewMemoryStore(statex.MemoryConfig{}))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	carts := cartx.NewStore()
	catalog := catalogx.NewMemory(catalogx.SeedProducts())

	tools, err := toolx.NewGateway(catalog, carts, noopCheckout{})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	gate, err := gatex.New(sessions, tools)
	if err != nil {
		t.Fatalf("gate.New() error = %v", err)
	}
	svc, err := orchestrator.New(sessions, carts, catalog, tools, gate, classifier, &staticWriter{reply: "Take a look at these."}, orchestrator.Config{})
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}

	h := NewHandler(svc, catalog)
	ws := NewWebSocketHandler(svc, nil)
	srv := httptest.NewServer(NewRouter(h, ws, Config{RequestTimeout: time.Minute}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{verdict: contractx.ClassifyResult{
		Intent: contractx.IntentInformational,
		Query:  "laptop",
	}}
	srv := newTestServer(t, classifier)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "show me laptops"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var res orchestrator.ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if res.Reply != "Take a look at these." {
		t.Fatalf("reply = %q", res.Reply)
	}
	if len(res.Suggestions) == 0 {
		t.Fatal("expected suggestions")
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatEndpointRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConfirmWithNothingPendingIsNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp := postJSON(t, srv.URL+"/api/actions/confirm", map[string]any{"session_id": "s1", "confirmed": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestConfirmFlowOverREST(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{verdict: contractx.ClassifyResult{
		Intent:    contractx.IntentMutating,
		Action:    contractx.ActionAddToCart,
		ProductID: "p1001",
		Quantity:  2,
	}}
	srv := newTestServer(t, classifier)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"session_id": "s1", "message": "add two budget laptops"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, want 200", resp.StatusCode)
	}
	var chat orchestrator.ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chat.Pending == nil {
		t.Fatal("expected a pending action")
	}

	resp = postJSON(t, srv.URL+"/api/actions/confirm", map[string]any{"session_id": "s1", "confirmed": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d, want 200", resp.StatusCode)
	}
	var resolution gatex.Resolution
	if err := json.NewDecoder(resp.Body).Decode(&resolution); err != nil {
		t.Fatalf("decode resolution: %v", err)
	}
	if !resolution.Confirmed || resolution.Cart == nil || len(resolution.Cart.Items) != 1 {
		t.Fatalf("unexpected resolution: %+v", resolution)
	}
	if resolution.Cart.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", resolution.Cart.Items[0].Quantity)
	}
}

func TestCartEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp := postJSON(t, srv.URL+"/api/cart/s1", map[string]any{"op": "add", "product_id": "p1001", "quantity": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mutate status = %d, want 200", resp.StatusCode)
	}
	var cart contractx.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}

	get, err := http.Get(srv.URL + "/api/cart/s1")
	if err != nil {
		t.Fatalf("GET cart: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", get.StatusCode)
	}

	bad := postJSON(t, srv.URL+"/api/cart/s1", map[string]any{"op": "add", "product_id": "p1001", "quantity": -1})
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid quantity status = %d, want 400", bad.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp := postJSON(t, srv.URL+"/api/search", map[string]any{"query": "laptop", "page": 1, "page_size": 10})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Products []contractx.Product `json:"products"`
		Total    int                 `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Total == 0 || len(out.Products) == 0 {
		t.Fatalf("expected matches, got %+v", out)
	}
}

func TestProductEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &scriptedClassifier{})

	resp, err := http.Get(srv.URL + "/api/products/p1001")
	if err != nil {
		t.Fatalf("GET product: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var details contractx.ProductDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Product.ID != "p1001" {
		t.Fatalf("product id = %q", details.Product.ID)
	}

	missing, err := http.Get(srv.URL + "/api/products/nope")
	if err != nil {
		t.Fatalf("GET missing product: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", missing.StatusCode)
	}
}
