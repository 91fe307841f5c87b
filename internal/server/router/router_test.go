package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/domain/models"
	"github.com/ecoalliance/cotizador/internal/render/pdf"
	"github.com/ecoalliance/cotizador/internal/repository/filestore"
	"github.com/ecoalliance/cotizador/internal/server/handlers"
	"github.com/ecoalliance/cotizador/internal/server/router"
	"github.com/ecoalliance/cotizador/internal/service/pricing"
	"github.com/ecoalliance/cotizador/internal/service/quotation"
	"github.com/ecoalliance/cotizador/pkg/clients/webhook"
)

const chipperRequest = `{
	"productoPrincipal": {
		"codigo_producto": "A141XL",
		"nombre_del_producto": "Chipeadora PTO A141XL",
		"Descripcion": "Chipeadora profesional con sistema de corte por disco",
		"pf_eur": "22500",
		"transporte_nacional": "1200",
		"peso_kg": "850",
		"volumen_m3": "4.5"
	},
	"opcionalesSeleccionados": [
		{"codigo_producto": "16521", "nombre_del_producto": "Eje PTO con Disco Volante", "pf_eur": "1250", "peso_kg": "45", "volumen_m3": "0.2"},
		{"codigo_producto": "16902", "nombre_del_producto": "Eje PTO con Disco Volante y Embrague", "pf_eur": 1850, "peso_kg": 52, "volumen_m3": 0.25}
	],
	"markup": 20,
	"descuento": 5,
	"tasaCambio": 950.0,
	"puertoOrigen": "Valencia",
	"puertoDestino": "Valparaiso"
}`

type fakeProxy struct {
	resp *webhook.ForwardResponse
	last webhook.ForwardRequest
}

func (f *fakeProxy) Has(name string) bool {
	return name == "principal" || name == "cotizacion"
}

func (f *fakeProxy) Forward(_ context.Context, req webhook.ForwardRequest) (*webhook.ForwardResponse, error) {
	f.last = req
	return f.resp, nil
}

func newTestRouter(t *testing.T, proxy webhook.Client) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := filestore.New(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defaults := config.DefaultPricing()
	svc := quotation.NewService(pricing.NewEngine(defaults.Tariff, nil), defaults, store, nil)

	engine := router.New(
		handlers.NewQuotationHandler(svc, pdf.New("Eco Alliance"), nil),
		handlers.NewWebhookProxyHandler(proxy, nil),
		nil,
	)
	return engine, dir
}

func do(engine http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != handlers.Version || body["timestamp"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCalculate(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodPost, "/api/calculate", `{"base_price": 100, "markup": 20, "discount": 5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var got models.PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FinalPrice != 114 {
		t.Fatalf("final price = %v", got.FinalPrice)
	}
}

func TestExchange(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodPost, "/api/exchange", `{"price_eur": 100, "exchange_rate": 950.25}`)
	var got models.ExchangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.LocalPrice != 95025 {
		t.Fatalf("local price = %v", got.LocalPrice)
	}
}

func TestShipping(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	body := `{
		"producto_principal": {"codigo_producto": "A141XL", "pf_eur": "22500", "peso_kg": "850", "volumen_m3": "4.5"},
		"opcionales": [
			{"codigo_producto": "16521", "pf_eur": "1250", "peso_kg": "45", "volumen_m3": "0.2"},
			{"codigo_producto": "16902", "pf_eur": "1850", "peso_kg": "52", "volumen_m3": "0.25"}
		],
		"puerto_origen": "valencia",
		"puerto_destino": "valparaiso"
	}`
	rec := do(engine, http.MethodPost, "/api/shipping", body)
	var got models.ShippingBreakdown
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.VariableCost != 4735 || got.BaseCost != 2500 || got.Total != 8865.65 {
		t.Fatalf("unexpected breakdown %+v", got)
	}
}

func TestMissingBody(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	for _, body := range []string{"", "{}", "[]", "not json"} {
		rec := do(engine, http.MethodPost, "/api/calculate", body)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No data provided") {
			t.Fatalf("body %q: status=%d response=%s", body, rec.Code, rec.Body.String())
		}
	}

	rec := do(engine, http.MethodPost, "/api/cotizacion", `{"productoPrincipal": "oops"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", rec.Code)
	}
}

func TestCreateQuotation_PersistsFile(t *testing.T) {
	engine, dir := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodPost, "/api/cotizacion", chipperRequest)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var envelope models.QuotationEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != models.StatusSuccess || envelope.Quotation == nil {
		t.Fatalf("unexpected envelope %s", rec.Body.String())
	}
	q := envelope.Quotation
	if q.GrandTotalEUR != 38049.65 || q.Totals.FinalEUR != 29184 || len(q.Optionals) != 2 {
		t.Fatalf("unexpected quotation %+v", q)
	}

	stored, err := os.ReadFile(filepath.Join(dir, q.ID+".json"))
	if err != nil {
		t.Fatalf("quotation file not written: %v", err)
	}
	var onDisk models.QuotationEnvelope
	if err := json.Unmarshal(stored, &onDisk); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if onDisk.Quotation == nil || onDisk.Quotation.ID != q.ID {
		t.Fatalf("stored quotation mismatch")
	}
}

func TestQuotationPDF(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodPost, "/api/cotizacion/pdf", chipperRequest)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("body is not a PDF")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "COT-") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestWebhookProxy_UnknownType(t *testing.T) {
	engine, _ := newTestRouter(t, &fakeProxy{})

	rec := do(engine, http.MethodGet, "/api/webhook-proxy/nope", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid webhook type: nope") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestWebhookProxy_RelaysVerbatim(t *testing.T) {
	proxy := &fakeProxy{resp: &webhook.ForwardResponse{
		StatusCode: http.StatusAccepted,
		Header:     http.Header{"Content-Type": {"text/csv"}, "X-Upstream": {"n8n"}, "Content-Length": {"999"}},
		Body:       []byte("a,b\n1,2\n"),
	}}
	engine, _ := newTestRouter(t, proxy)

	rec := do(engine, http.MethodGet, "/api/webhook-proxy/principal?codigo=A141XL", "")
	if rec.Code != http.StatusAccepted || rec.Body.String() != "a,b\n1,2\n" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Upstream") != "n8n" || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("headers not relayed: %v", rec.Header())
	}
	if proxy.last.Method != http.MethodGet || proxy.last.Query.Get("codigo") != "A141XL" {
		t.Fatalf("unexpected forward request %+v", proxy.last)
	}
}

func TestWebhookProxy_ReparsesQuotationJSON(t *testing.T) {
	proxy := &fakeProxy{resp: &webhook.ForwardResponse{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte(`{"ok":  true}`),
	}}
	engine, _ := newTestRouter(t, proxy)

	rec := do(engine, http.MethodPost, "/api/webhook-proxy/cotizacion", `{"markup": 20}`)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if string(proxy.last.Body) != `{"markup": 20}` {
		t.Fatalf("forwarded body = %q", proxy.last.Body)
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWebhookProxy_UnreadableBody(t *testing.T) {
	proxy := &fakeProxy{resp: &webhook.ForwardResponse{StatusCode: http.StatusOK}}
	engine, _ := newTestRouter(t, proxy)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook-proxy/cotizacion", failingBody{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid payload") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if proxy.last.Webhook != "" {
		t.Fatalf("request forwarded despite unreadable body: %+v", proxy.last)
	}
}
