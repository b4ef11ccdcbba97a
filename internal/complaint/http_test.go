package complaint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/civicflow/api/internal/http/middleware"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/storage"
)

func newTestRouter() (chi.Router, *Service, *stubDirectory) {
	svc, _, directory := newTestService()
	handler := NewHandler(svc, storage.NoopUploader{})

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, svc, directory
}

func authedRequest(method, target string, body any, subject uuid.UUID, role string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, subject.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()

	var envelope struct {
		Data  map[string]json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, rec.Body.String())
	}
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, rec.Body.String())
	}
	if envelope.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	return envelope.Error.Code
}

func raiseBody() map[string]any {
	return map[string]any{
		"title":       "Leaking tap",
		"description": "Kitchen tap drips all night",
		"department":  identity.DepartmentPlumber,
		"block":       "A",
		"floor":       2,
		"room_number": 3,
	}
}

func TestHandleRaise(t *testing.T) {
	router, _, directory := newTestRouter()
	residentID := directory.addResident()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/complaints", raiseBody(), residentID, identity.RoleResident))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	data := decodeEnvelope(t, rec)
	var created Complaint
	if err := json.Unmarshal(data["complaint"], &created); err != nil {
		t.Fatalf("decode complaint: %v", err)
	}
	if created.Status != StatusPending || created.ResidentID != residentID {
		t.Fatalf("created = %+v", created)
	}
}

func TestHandleRaiseRejectsNonResident(t *testing.T) {
	router, _, directory := newTestRouter()
	workerID := directory.addWorker(identity.DepartmentPlumber)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/complaints", raiseBody(), workerID, identity.RoleWorker))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandleRaiseValidation(t *testing.T) {
	router, _, directory := newTestRouter()
	residentID := directory.addResident()

	body := raiseBody()
	body["department"] = "Gardener"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/complaints", body, residentID, identity.RoleResident))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Fatalf("code = %q, want VALIDATION", code)
	}
}

func TestHandleListMine(t *testing.T) {
	router, svc, directory := newTestRouter()
	residentID := directory.addResident()
	otherID := directory.addResident()

	ctx := context.Background()
	if _, err := svc.Raise(ctx, residentID, validInput(residentID)); err != nil {
		t.Fatalf("Raise() = %v", err)
	}
	if _, err := svc.Raise(ctx, otherID, validInput(otherID)); err != nil {
		t.Fatalf("Raise() = %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/complaints/mine", nil, residentID, identity.RoleResident))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	data := decodeEnvelope(t, rec)
	var complaints []Complaint
	if err := json.Unmarshal(data["complaints"], &complaints); err != nil {
		t.Fatalf("decode complaints: %v", err)
	}
	if len(complaints) != 1 || complaints[0].ResidentID != residentID {
		t.Fatalf("complaints = %+v", complaints)
	}
}

func TestHandleWorkerFlow(t *testing.T) {
	router, svc, directory := newTestRouter()
	residentID := directory.addResident()
	plumber := directory.addWorker(identity.DepartmentPlumber)

	c, err := svc.Raise(context.Background(), residentID, validInput(residentID))
	if err != nil {
		t.Fatalf("Raise() = %v", err)
	}

	// Available listing shows the pending complaint.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/complaints/worker/available", nil, plumber, identity.RoleWorker))
	if rec.Code != http.StatusOK {
		t.Fatalf("available status = %d", rec.Code)
	}

	// Accept, start, complete in order.
	for _, step := range []string{"accept", "start", "complete"} {
		rec := httptest.NewRecorder()
		target := fmt.Sprintf("/complaints/worker/%s/%s", c.ID, step)
		router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, plumber, identity.RoleWorker))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body = %s", step, rec.Code, rec.Body.String())
		}
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/complaints/worker/completed", nil, plumber, identity.RoleWorker))
	if rec.Code != http.StatusOK {
		t.Fatalf("completed status = %d", rec.Code)
	}

	data := decodeEnvelope(t, rec)
	var completed []Complaint
	if err := json.Unmarshal(data["complaints"], &completed); err != nil {
		t.Fatalf("decode complaints: %v", err)
	}
	if len(completed) != 1 || completed[0].Status != StatusCompleted {
		t.Fatalf("completed = %+v", completed)
	}
}

func TestHandleAcceptConflict(t *testing.T) {
	router, svc, directory := newTestRouter()
	residentID := directory.addResident()
	winner := directory.addWorker(identity.DepartmentPlumber)
	loser := directory.addWorker(identity.DepartmentPlumber)

	c, err := svc.Raise(context.Background(), residentID, validInput(residentID))
	if err != nil {
		t.Fatalf("Raise() = %v", err)
	}
	if _, err := svc.Accept(context.Background(), c.ID, winner); err != nil {
		t.Fatalf("Accept() = %v", err)
	}

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/complaints/worker/%s/accept", c.ID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, loser, identity.RoleWorker))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "CONFLICT" {
		t.Fatalf("code = %q, want CONFLICT", code)
	}
}

func TestHandleDepartmentMismatch(t *testing.T) {
	router, svc, directory := newTestRouter()
	residentID := directory.addResident()
	electrician := directory.addWorker(identity.DepartmentElectrician)

	c, err := svc.Raise(context.Background(), residentID, validInput(residentID))
	if err != nil {
		t.Fatalf("Raise() = %v", err)
	}

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/complaints/worker/%s/accept", c.ID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, electrician, identity.RoleWorker))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandleTransitionBadID(t *testing.T) {
	router, _, directory := newTestRouter()
	plumber := directory.addWorker(identity.DepartmentPlumber)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/complaints/worker/not-a-uuid/accept", nil, plumber, identity.RoleWorker))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUnknownComplaint(t *testing.T) {
	router, _, directory := newTestRouter()
	plumber := directory.addWorker(identity.DepartmentPlumber)

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/complaints/worker/%s/accept", uuid.New())
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, plumber, identity.RoleWorker))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTasksOrdering(t *testing.T) {
	_, svc, directory := newTestRouter()
	residentID := directory.addResident()
	plumber := directory.addWorker(identity.DepartmentPlumber)
	ctx := context.Background()

	first, err := svc.Raise(ctx, residentID, validInput(residentID))
	if err != nil {
		t.Fatalf("Raise() = %v", err)
	}
	second, err := svc.Raise(ctx, residentID, validInput(residentID))
	if err != nil {
		t.Fatalf("Raise() = %v", err)
	}

	if _, err := svc.Accept(ctx, first.ID, plumber); err != nil {
		t.Fatalf("Accept() = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := svc.Accept(ctx, second.ID, plumber); err != nil {
		t.Fatalf("Accept() = %v", err)
	}

	tasks, err := svc.ListTasks(ctx, plumber)
	if err != nil {
		t.Fatalf("ListTasks() = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
}
