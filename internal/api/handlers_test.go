package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/extracurricular/internal/domain"
	"example.com/extracurricular/internal/events"
	"example.com/extracurricular/internal/persistence/memory"
)

func newTestMux() *http.ServeMux {
	catalog := []domain.Activity{
		{
			Name:            "Test Activity",
			Description:     "A test activity for testing purposes",
			Schedule:        "Test schedule",
			MaxParticipants: 5,
			Participants:    []string{"test1@mergington.edu", "test2@mergington.edu"},
		},
		{
			Name:            "Empty Activity",
			Description:     "An activity with no participants",
			Schedule:        "Empty schedule",
			MaxParticipants: 10,
			Participants:    []string{},
		},
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 2,
			Participants:    []string{},
		},
	}

	service := domain.NewService(memory.NewStore(catalog), events.NoopPublisher{})
	handler := NewHandler(service, "static")
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func listActivities(t *testing.T, mux *http.ServeMux) map[string]ActivityView {
	t.Helper()
	rr := do(mux, http.MethodGet, "/activities")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var data map[string]ActivityView
	if err := json.Unmarshal(rr.Body.Bytes(), &data); err != nil {
		t.Fatalf("failed to decode activities: %v", err)
	}
	return data
}

func errorDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return payload["detail"]
}

func TestRootRedirectsToStaticIndex(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodGet, "/")
	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 got %d", rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/static/index.html" {
		t.Fatalf("unexpected redirect location %q", location)
	}
}

func TestListActivitiesReturnsCatalog(t *testing.T) {
	mux := newTestMux()

	data := listActivities(t, mux)
	if len(data) != 3 {
		t.Fatalf("expected 3 activities got %d", len(data))
	}

	testActivity, ok := data["Test Activity"]
	if !ok {
		t.Fatal("missing Test Activity")
	}
	if testActivity.MaxParticipants != 5 {
		t.Fatalf("expected max_participants 5 got %d", testActivity.MaxParticipants)
	}
	if len(testActivity.Participants) != 2 {
		t.Fatalf("expected 2 participants got %d", len(testActivity.Participants))
	}
	if testActivity.Description == "" || testActivity.Schedule == "" {
		t.Fatal("expected description and schedule to be populated")
	}
}

func TestSignupSuccessful(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup?email=newstudent@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SignupResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Signed up newstudent@mergington.edu for Test Activity" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if len(resp.Activity.Participants) != 3 {
		t.Fatalf("expected 3 participants got %d", len(resp.Activity.Participants))
	}

	data := listActivities(t, mux)
	participants := data["Test Activity"].Participants
	if participants[len(participants)-1] != "newstudent@mergington.edu" {
		t.Fatalf("new participant missing from listing: %v", participants)
	}
}

func TestSignupToEmptyActivity(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Empty%20Activity/signup?email=first@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	data := listActivities(t, mux)
	participants := data["Empty Activity"].Participants
	if len(participants) != 1 || participants[0] != "first@mergington.edu" {
		t.Fatalf("unexpected participants %v", participants)
	}
}

func TestSignupActivityNotFound(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Nonexistent%20Activity/signup?email=test@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := errorDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupDuplicateRejected(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup?email=test1@mergington.edu")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := errorDetail(t, rr); detail != "Student already signed up for this activity" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupFullActivityRejected(t *testing.T) {
	mux := newTestMux()

	for _, email := range []string{"a@x.com", "b@x.com"} {
		rr := do(mux, http.MethodPost, "/activities/Chess%20Club/signup?email="+email)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := do(mux, http.MethodPost, "/activities/Chess%20Club/signup?email=c@x.com")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := errorDetail(t, rr); detail != "Activity is full" {
		t.Fatalf("unexpected detail %q", detail)
	}

	data := listActivities(t, mux)
	if got := len(data["Chess Club"].Participants); got != 2 {
		t.Fatalf("capacity invariant broken: %d participants", got)
	}
}

func TestSignupRequiresEmail(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestSignupRejectsMalformedEmail(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup?email=invalid-email")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestSignupDecodesEncodedEmail(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup?email=test%2Balias@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	data := listActivities(t, mux)
	found := false
	for _, participant := range data["Test Activity"].Participants {
		if participant == "test+alias@mergington.edu" {
			found = true
		}
	}
	if !found {
		t.Fatalf("decoded email missing from roster: %v", data["Test Activity"].Participants)
	}
}

func TestRemoveParticipantSuccessful(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodDelete, "/activities/Test%20Activity/signup?email=test1@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RemoveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Removed test1@mergington.edu from Test Activity" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	data := listActivities(t, mux)
	participants := data["Test Activity"].Participants
	if len(participants) != 1 || participants[0] != "test2@mergington.edu" {
		t.Fatalf("unexpected participants %v", participants)
	}
}

func TestRemoveParticipantActivityNotFound(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodDelete, "/activities/Nonexistent%20Activity/signup?email=test@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := errorDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestRemoveParticipantNotSignedUp(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodDelete, "/activities/Test%20Activity/signup?email=notsignedup@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := errorDetail(t, rr); detail != "Student not signed up for this activity" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupAndRemoveWorkflow(t *testing.T) {
	mux := newTestMux()
	email := "workflow@mergington.edu"

	before := len(listActivities(t, mux)["Test Activity"].Participants)

	if rr := do(mux, http.MethodPost, "/activities/Test%20Activity/signup?email="+email); rr.Code != http.StatusOK {
		t.Fatalf("signup failed: %d", rr.Code)
	}
	after := listActivities(t, mux)["Test Activity"].Participants
	if len(after) != before+1 {
		t.Fatalf("expected %d participants got %d", before+1, len(after))
	}

	if rr := do(mux, http.MethodDelete, "/activities/Test%20Activity/signup?email="+email); rr.Code != http.StatusOK {
		t.Fatalf("removal failed: %d", rr.Code)
	}
	final := listActivities(t, mux)["Test Activity"].Participants
	if len(final) != before {
		t.Fatalf("expected %d participants got %d", before, len(final))
	}
	for _, participant := range final {
		if participant == email {
			t.Fatalf("participant %s still present after removal", email)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux()

	if rr := do(mux, http.MethodPut, "/activities/Test%20Activity/signup?email=x@y.com"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
	if rr := do(mux, http.MethodPost, "/activities"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux()

	rr := do(mux, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}
