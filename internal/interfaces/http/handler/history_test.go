package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/pkg/errors"
)

type fakeHistoryRepo struct {
	created []*entity.HistoryRecord
}

func (f *fakeHistoryRepo) Create(ctx context.Context, r *entity.HistoryRecord) error {
	r.ID = "rec-1"
	f.created = append(f.created, r)
	return nil
}

func (f *fakeHistoryRepo) GetByID(ctx context.Context, id string) (*entity.HistoryRecord, error) {
	return nil, errors.ErrRecordNotFound
}

func (f *fakeHistoryRepo) Update(ctx context.Context, r *entity.HistoryRecord) error { return nil }
func (f *fakeHistoryRepo) Delete(ctx context.Context, id string) error               { return nil }

func (f *fakeHistoryRepo) List(ctx context.Context) ([]entity.HistoryIndexEntry, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) Search(ctx context.Context, keyword string) ([]entity.HistoryIndexEntry, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) FindByTaskID(ctx context.Context, taskID string) (*entity.HistoryRecord, error) {
	return nil, errors.ErrRecordNotFound
}

func (f *fakeHistoryRepo) ScanTasks(ctx context.Context) (*entity.ScanReport, error) {
	return &entity.ScanReport{}, nil
}

func postHistory(t *testing.T, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/history", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func TestHistoryCreateRejectsUnsafeTaskID(t *testing.T) {
	repo := &fakeHistoryRepo{}
	h := NewHistoryHandler(repo, nil)

	w, c := postHistory(t, `{"title":"小岛","task_id":".."}`)
	h.Create(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(repo.created) != 0 {
		t.Fatal("record with unsafe task id must not be persisted")
	}
}

func TestHistoryCreateAcceptsSafeTaskID(t *testing.T) {
	repo := &fakeHistoryRepo{}
	h := NewHistoryHandler(repo, nil)

	w, c := postHistory(t, `{"title":"小岛","task_id":"task-42","pages":[{"index":0,"type":"cover","content":"海"}]}`)
	h.Create(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if len(repo.created) != 1 || repo.created[0].Images.TaskID != "task-42" {
		t.Fatalf("created = %+v", repo.created)
	}
}
