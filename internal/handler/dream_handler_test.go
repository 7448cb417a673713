package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

func strPtr(s string) *string { return &s }

func sampleEntries() []journal.Entry {
	return []journal.Entry{
		{
			Dream: &model.Dream{
				ID:           "dream-2",
				CreatedAt:    time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
				UserID:       "user-1",
				DreamContent: "I was flying",
				Emotions:     []string{"Joy", "Excitement"},
				Analysis:     strPtr("You seek freedom."),
			},
			Sections: []textnorm.Section{{Title: "Analysis", Content: "You seek freedom."}},
		},
		{
			Dream: &model.Dream{
				ID:           "dream-1",
				CreatedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
				UserID:       "user-1",
				DreamContent: "I lost my keys",
				Emotions:     []string{"Anxiety"},
			},
		},
	}
}

// withURLParam はchiのURLパラメータをリクエストに付与する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDreamHandler_ListDreams(t *testing.T) {
	var gotIdentity *session.Identity
	svc := &mockJournalService{
		listFn: func(ctx context.Context, identity *session.Identity) ([]journal.Entry, error) {
			gotIdentity = identity
			return sampleEntries(), nil
		},
	}
	h := NewDreamHandler(svc)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/dreams", nil), "user-1")
	w := httptest.NewRecorder()

	h.ListDreams(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotIdentity == nil || gotIdentity.UserID != "user-1" {
		t.Errorf("identity = %+v", gotIdentity)
	}

	var body struct {
		Dreams []dreamResponse `json:"dreams"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Dreams) != 2 {
		t.Fatalf("len(dreams) = %d, want 2", len(body.Dreams))
	}
	if body.Dreams[0].ID != "dream-2" || len(body.Dreams[0].Sections) != 1 {
		t.Errorf("dreams[0] = %+v", body.Dreams[0])
	}
	if body.Dreams[1].Analysis != nil {
		t.Errorf("dreams[1].analysis = %q, want null", *body.Dreams[1].Analysis)
	}
}

func TestDreamHandler_ListDreams_EmptyIsArray(t *testing.T) {
	h := NewDreamHandler(&mockJournalService{})

	w := httptest.NewRecorder()
	h.ListDreams(w, withIdentity(httptest.NewRequest(http.MethodGet, "/api/dreams", nil), "user-1"))

	if got := strings.TrimSpace(w.Body.String()); got != `{"dreams":[]}` {
		t.Errorf("body = %s, want {\"dreams\":[]}", got)
	}
}

func TestDreamHandler_CreateDream_Saved_Returns201(t *testing.T) {
	saved := sampleEntries()[0]
	svc := &mockJournalService{
		submitFn: func(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*journal.Submission, error) {
			return &journal.Submission{
				Analysis:    *saved.Dream.Analysis,
				Sections:    saved.Sections,
				Persistence: journal.PersistSaved,
				Dream:       saved.Dream,
			}, nil
		},
	}
	h := NewDreamHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/dreams", strings.NewReader(`{"dream":"I was flying","emotions":["Joy"]}`))
	req = withIdentity(req, "user-1")
	w := httptest.NewRecorder()

	h.CreateDream(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if len(svc.submitIdentities) != 1 || svc.submitIdentities[0] == nil {
		t.Fatal("Submit should receive the request identity")
	}

	var body createDreamResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Persistence != journal.PersistSaved {
		t.Errorf("persistence = %q, want %q", body.Persistence, journal.PersistSaved)
	}
	if body.Dream == nil || body.Dream.ID != "dream-2" {
		t.Errorf("dream = %+v", body.Dream)
	}
}

func TestDreamHandler_CreateDream_SaveFailed_StillReturnsAnalysis(t *testing.T) {
	svc := &mockJournalService{
		submitFn: func(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*journal.Submission, error) {
			return &journal.Submission{
				Analysis:    "Water means emotion.",
				Sections:    []textnorm.Section{{Title: "Analysis", Content: "Water means emotion."}},
				Persistence: journal.PersistFailed,
			}, nil
		},
	}
	h := NewDreamHandler(svc)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/dreams", strings.NewReader(`{"dream":"rain","emotions":["Sadness"]}`)), "user-1")
	w := httptest.NewRecorder()

	h.CreateDream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body createDreamResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Analysis != "Water means emotion." || body.Dream != nil {
		t.Errorf("body = %+v", body)
	}
}

func TestDreamHandler_DeleteDream(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", model.NewDreamNotFoundError("dream-x"), http.StatusNotFound},
		{"unauthorized", model.NewUnauthorizedError(), http.StatusUnauthorized},
		{"db error", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockJournalService{
				deleteFn: func(ctx context.Context, identity *session.Identity, dreamID string) error {
					return tt.err
				},
			}
			h := NewDreamHandler(svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/dreams/dream-x", nil)
			req = withURLParam(withIdentity(req, "user-1"), "id", "dream-x")
			w := httptest.NewRecorder()

			h.DeleteDream(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(svc.deleteCalls) != 1 || svc.deleteCalls[0] != "dream-x" {
				t.Errorf("delete calls = %v", svc.deleteCalls)
			}
		})
	}
}

func TestDreamHandler_ExportDreams(t *testing.T) {
	svc := &mockJournalService{
		listFn: func(ctx context.Context, identity *session.Identity) ([]journal.Entry, error) {
			return sampleEntries(), nil
		},
	}
	h := NewDreamHandler(svc)

	w := httptest.NewRecorder()
	h.ExportDreams(w, withIdentity(httptest.NewRequest(http.MethodGet, "/api/dreams/export", nil), "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "dream-journal.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got, want := w.Body.String(), journal.ExportText(sampleEntries()); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestDreamHandler_ExportDreams_ListError(t *testing.T) {
	svc := &mockJournalService{
		listFn: func(ctx context.Context, identity *session.Identity) ([]journal.Entry, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewDreamHandler(svc)

	w := httptest.NewRecorder()
	h.ExportDreams(w, withIdentity(httptest.NewRequest(http.MethodGet, "/api/dreams/export", nil), "user-1"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("failed export should not be sent as an attachment")
	}
}
