package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/mvura-console/internal/api/http/handlers"
	"github.com/spec-kit/mvura-console/internal/auth"
	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/events"
	"github.com/spec-kit/mvura-console/internal/observability"
	"github.com/spec-kit/mvura-console/internal/repository"
	"github.com/spec-kit/mvura-console/internal/service"
)

const (
	operatorEmail    = "ops@mvura.local"
	operatorPassword = "s3cret"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app      *fiber.App
	clientID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	ticketRepo := repository.NewTicketRepository()
	clientRepo := repository.NewClientRepository()
	agentRepo := repository.NewAgentRepository(repository.DefaultAgents...)
	dispatcher := events.NewInMemoryDispatcher()

	clientService := service.NewClientService(clientRepo, ticketRepo, dispatcher, nil, logger)
	client, err := clientService.CreateClient(ctx, "seed", domain.ClientProfile{
		Name:         "Mercado Central",
		NIF:          "400123456",
		Address:      "Av. 25 de Setembro 1200",
		Contact:      "+258 84 100 2000",
		ContractType: domain.ContractCommercial,
		Status:       domain.ClientStatusActive,
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		ClientRepo:  clientRepo,
		AgentRepo:   agentRepo,
		HistoryRepo: repository.NewMemoryTicketHistoryRepository(),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:    ticketRepo,
		AgentRepo:     agentRepo,
		TicketService: ticketService,
	})

	operators := repository.NewOperatorRepository()
	if err := auth.BootstrapOperator(ctx, operators, operatorEmail, "Operator", operatorPassword, bcrypt.MinCost); err != nil {
		t.Fatalf("BootstrapOperator: %v", err)
	}
	gate := auth.NewSessionGate(operators, auth.NewMemorySessionStore(), auth.NewTokenManager("test-secret", time.Hour), logger)
	if err := gate.Init(ctx); err != nil {
		t.Fatalf("gate.Init: %v", err)
	}
	t.Cleanup(gate.Teardown)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:            handlers.NewHealthHandler("mvura-console", "test", nil, nil),
		Auth:              handlers.NewAuthHandler(gate),
		Tickets:           handlers.NewTicketsHandler(ticketService, assignmentService),
		Clients:           handlers.NewClientsHandler(clientService),
		Agents:            handlers.NewAgentsHandler(service.NewAgentService(agentRepo, logger)),
		Reports:           handlers.NewReportsHandler(service.NewReportService(ticketRepo, agentRepo)),
		SessionMiddleware: auth.NewSessionMiddleware(gate),
		Metrics:           metrics,
	})
	return &testServer{app: app, clientID: client.ID()}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, env := s.do(t, "POST", "/auth/login", "", `{"email":"`+operatorEmail+`","password":"`+operatorPassword+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Token == "" {
		t.Fatalf("login payload = %s", env.Data)
	}
	return out.Token
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t)

	status, env := srv.do(t, "POST", "/tickets", token,
		`{"title":"Leak on Main St","category":"visible-leak","priority":"HIGH","client_id":"`+srv.clientID+`"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, error = %+v", status, env.Error)
	}
	var created domain.TicketSnapshot
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if created.Status != domain.TicketStatusOpen || created.Assignee != nil {
		t.Fatalf("created = %+v", created)
	}

	steps := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "resolve without note", method: "POST", path: "/tickets/1/status", body: `{"status":"RESOLVED"}`, wantCode: 400, wantErr: "VALIDATION_FAILED"},
		{name: "resolve", method: "POST", path: "/tickets/1/status", body: `{"status":"RESOLVED","resolution_note":"Pipe replaced"}`, wantCode: 200},
		{name: "close", method: "POST", path: "/tickets/1/status", body: `{"status":"CLOSED"}`, wantCode: 200},
		{name: "closed to in progress", method: "POST", path: "/tickets/1/status", body: `{"status":"IN_PROGRESS"}`, wantCode: 409, wantErr: "ILLEGAL_TRANSITION"},
		{name: "reopen", method: "POST", path: "/tickets/1/status", body: `{"status":"OPEN"}`, wantCode: 200},
		{name: "unknown status", method: "POST", path: "/tickets/1/status", body: `{"status":"PAUSED"}`, wantCode: 400, wantErr: "VALIDATION_FAILED"},
		{name: "assign", method: "POST", path: "/tickets/1/assignee", body: `{"agent":"Maria Oliveira"}`, wantCode: 200},
		{name: "assign again", method: "POST", path: "/tickets/1/assignee", body: `{"agent":"Maria Oliveira"}`, wantCode: 409, wantErr: "NO_OP"},
		{name: "unknown agent", method: "POST", path: "/tickets/1/assignee", body: `{"agent":"Nobody"}`, wantCode: 404, wantErr: "NOT_FOUND"},
		{name: "unassign", method: "POST", path: "/tickets/1/assignee", body: `{"agent":null}`, wantCode: 200},
		{name: "auto assign", method: "POST", path: "/tickets/1/assignee/auto", wantCode: 200},
		{name: "unassign again", method: "POST", path: "/tickets/1/assignee", body: `{"agent":""}`, wantCode: 200},
		{name: "comment", method: "POST", path: "/tickets/1/comments", body: `{"author":"Carlos","body":"checked valve"}`, wantCode: 201},
		{name: "blank comment", method: "POST", path: "/tickets/1/comments", body: `{"author":"Carlos","body":"   "}`, wantCode: 400, wantErr: "VALIDATION_FAILED"},
		{name: "missing ticket", method: "GET", path: "/tickets/99", wantCode: 404, wantErr: "NOT_FOUND"},
		{name: "bad ticket id", method: "GET", path: "/tickets/abc", wantCode: 400, wantErr: "VALIDATION_FAILED"},
	}
	for _, step := range steps {
		status, env := srv.do(t, step.method, step.path, token, step.body)
		if status != step.wantCode {
			t.Fatalf("%s: status = %d, want %d (error %+v)", step.name, status, step.wantCode, env.Error)
		}
		if step.wantErr != "" && (env.Error == nil || env.Error.Code != step.wantErr) {
			t.Fatalf("%s: error = %+v, want %s", step.name, env.Error, step.wantErr)
		}
	}

	_, env = srv.do(t, "GET", "/tickets/1", token, "")
	var snap domain.TicketSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != domain.TicketStatusOpen || snap.ResolutionNote != nil || snap.Assignee != nil {
		t.Errorf("final snapshot = %+v", snap)
	}
	if len(snap.Comments) != 1 || len(snap.Assignments) != 4 {
		t.Errorf("comments = %d, assignments = %d", len(snap.Comments), len(snap.Assignments))
	}

	_, env = srv.do(t, "GET", "/tickets/1/history", token, "")
	var history []domain.TicketHistory
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	// created, resolved, closed, reopened, four assignee changes, comment
	if len(history) != 9 {
		t.Errorf("history entries = %d, want 9", len(history))
	}
}

func TestListAndReportsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t)

	for _, category := range []string{"water-outage", "water-outage", "meter-fault"} {
		status, env := srv.do(t, "POST", "/tickets", token,
			`{"title":"t","category":"`+category+`","priority":"LOW","client_id":"`+srv.clientID+`"}`)
		if status != fiber.StatusCreated {
			t.Fatalf("create: %d %+v", status, env.Error)
		}
	}

	_, env := srv.do(t, "GET", "/tickets?category=water-outage&page_size=1&page=2", token, "")
	var page struct {
		Items []domain.TicketSnapshot `json:"items"`
		Total int                     `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ID != 2 {
		t.Errorf("page = %+v", page)
	}

	status, env := srv.do(t, "GET", "/tickets?page=9223372036854775807&page_size=100", token, "")
	if status != fiber.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("page past the end of int: %d %+v", status, env.Error)
	}

	status, env = srv.do(t, "GET", "/tickets?priority=urgent", token, "")
	if status != fiber.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("bad filter: %d %+v", status, env.Error)
	}

	_, env = srv.do(t, "GET", "/reports/categories", token, "")
	var report struct {
		Total      int `json:"total"`
		Categories []struct {
			Category   string  `json:"category"`
			Percentage float64 `json:"percentage"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 3 || report.Categories[0].Percentage != 66.7 {
		t.Errorf("report = %+v", report)
	}

	for _, path := range []string{"/reports/statuses", "/reports/priorities", "/reports/agents", "/agents", "/clients"} {
		if status, env := srv.do(t, "GET", path, token, ""); status != fiber.StatusOK {
			t.Errorf("GET %s: %d %+v", path, status, env.Error)
		}
	}
}

func TestAgentAvailabilityOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t)

	for _, path := range []string{"/agents/Maria%20Oliveira", "/agents/Carlos%20Santos", "/agents/Lu%C3%ADsa%20Fernandes"} {
		if status, env := srv.do(t, "PATCH", path, token, `{"active":false}`); status != fiber.StatusNoContent {
			t.Fatalf("PATCH %s: %d %+v", path, status, env.Error)
		}
	}
	if status, env := srv.do(t, "PATCH", "/agents/Nobody", token, `{"active":false}`); status != fiber.StatusNotFound {
		t.Fatalf("unknown agent: %d %+v", status, env.Error)
	}
	if status, env := srv.do(t, "PATCH", "/agents/Maria%20Oliveira", token, `{}`); status != fiber.StatusBadRequest {
		t.Fatalf("missing active: %d %+v", status, env.Error)
	}

	_, env := srv.do(t, "GET", "/agents?active=true", token, "")
	var active []domain.Agent
	if err := json.Unmarshal(env.Data, &active); err != nil {
		t.Fatalf("decode agents: %v", err)
	}
	if len(active) != 2 || active[0].Name != "Pedro Lima" || active[1].Name != "Rafael Mendes" {
		t.Fatalf("active agents = %+v", active)
	}

	if status, env := srv.do(t, "POST", "/tickets", token,
		`{"title":"t","category":"meter-fault","priority":"LOW","client_id":"`+srv.clientID+`"}`); status != fiber.StatusCreated {
		t.Fatalf("create: %d %+v", status, env.Error)
	}
	status, env := srv.do(t, "POST", "/tickets/1/assignee/auto", token, "")
	if status != fiber.StatusOK {
		t.Fatalf("auto assign: %d %+v", status, env.Error)
	}
	var snap domain.TicketSnapshot
	_ = json.Unmarshal(env.Data, &snap)
	if snap.Assignee == nil || *snap.Assignee != "Pedro Lima" {
		t.Fatalf("auto assignee = %v, want Pedro Lima", snap.Assignee)
	}
}

func TestClientEditVisibleOnTickets(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t)

	if status, env := srv.do(t, "POST", "/tickets", token,
		`{"title":"Sem água","category":"water-outage","priority":"CRITICAL","client_id":"`+srv.clientID+`"}`); status != fiber.StatusCreated {
		t.Fatalf("create: %d %+v", status, env.Error)
	}

	status, env := srv.do(t, "PUT", "/clients/"+srv.clientID, token,
		`{"name":"Mercado Central de Maputo","nif":"400123456","address":"Av. 25 de Setembro 1200","contact":"+258 84 100 2000","contract_type":"commercial","status":"active","start_date":"2022-03-15"}`)
	if status != fiber.StatusOK {
		t.Fatalf("update: %d %+v", status, env.Error)
	}

	_, env = srv.do(t, "GET", "/tickets/1", token, "")
	var snap domain.TicketSnapshot
	_ = json.Unmarshal(env.Data, &snap)
	if snap.Client.Name != "Mercado Central de Maputo" {
		t.Errorf("ticket client name = %q", snap.Client.Name)
	}

	status, env = srv.do(t, "PUT", "/clients/"+srv.clientID, token, `{"name":"x","contract_type":"GOVERNMENT"}`)
	if status != fiber.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("invalid update: %d %+v", status, env.Error)
	}
	if _, ok := env.Error.Details["fields"]; !ok {
		t.Errorf("details = %+v", env.Error.Details)
	}

	_, env = srv.do(t, "GET", "/clients/"+srv.clientID+"/activity", token, "")
	var activity []struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(env.Data, &activity)
	if len(activity) < 3 || activity[0].Type != "EDITED" {
		t.Errorf("activity = %+v", activity)
	}

	if status, _ := srv.do(t, "GET", "/clients/CLI-9999", token, ""); status != fiber.StatusNotFound {
		t.Errorf("missing client status = %d", status)
	}
}

func TestSessionGateOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	if status, env := srv.do(t, "GET", "/tickets", "", ""); status != fiber.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("no token: %d %+v", status, env.Error)
	}
	if status, _ := srv.do(t, "POST", "/auth/login", "", `{"email":"`+operatorEmail+`","password":"wrong"}`); status != fiber.StatusUnauthorized {
		t.Fatalf("bad password status = %d", status)
	}

	token := srv.login(t)
	other := srv.login(t)
	if status, _ := srv.do(t, "GET", "/auth/session", token, ""); status != fiber.StatusOK {
		t.Fatalf("session status = %d", status)
	}
	if status, _ := srv.do(t, "POST", "/auth/logout", token, ""); status != fiber.StatusNoContent {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ := srv.do(t, "GET", "/tickets", token, ""); status != fiber.StatusUnauthorized {
		t.Fatalf("after logout status = %d", status)
	}
	if status, _ := srv.do(t, "GET", "/tickets", other, ""); status != fiber.StatusOK {
		t.Fatalf("other session status = %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, "GET", "/health/live", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("live status = %d", status)
	}

	req := httptest.NewRequest("GET", "/health/ready", nil)
	resp, err := srv.app.Test(req)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	var ready struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if ready.Status != "ready" || ready.Dependencies["postgres"] != "disabled" || ready.Dependencies["redis"] != "disabled" {
		t.Errorf("ready = %+v", ready)
	}

	if status, env := srv.do(t, "GET", "/nowhere", "", ""); status != fiber.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Errorf("unknown route: %d %+v", status, env.Error)
	}

	resp, err = srv.app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "mvura_console_http_requests_total") {
		t.Errorf("metrics output missing request counter")
	}
}
