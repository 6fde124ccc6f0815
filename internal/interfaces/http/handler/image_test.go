package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/pkg/errors"
)

type fakeImageStore struct {
	loaded []string
}

func (f *fakeImageStore) Save(ctx context.Context, taskID string, index int, data []byte) (string, error) {
	return "", errors.ErrInternalError
}

func (f *fakeImageStore) Load(ctx context.Context, taskID string, index int, thumb bool) ([]byte, error) {
	f.loaded = append(f.loaded, taskID)
	return []byte("png-bytes"), nil
}

func imageRequest(t *testing.T, taskID, index string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/images/"+taskID+"/"+index, nil)
	c.Params = gin.Params{
		{Key: "taskID", Value: taskID},
		{Key: "index", Value: index},
	}
	return w, c
}

func TestImageHandlerRejectsPathTraversalTaskID(t *testing.T) {
	store := &fakeImageStore{}
	h := NewImageHandler(store)

	for _, taskID := range []string{"..", "../../data", "a/b", "..%2F.."} {
		w, c := imageRequest(t, taskID, "0")
		h.Get(c)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("taskID %q: status = %d, want 400", taskID, w.Code)
		}
	}
	if len(store.loaded) != 0 {
		t.Fatalf("store reached with unsafe task ids: %v", store.loaded)
	}
}

func TestImageHandlerServesValidTaskID(t *testing.T) {
	store := &fakeImageStore{}
	h := NewImageHandler(store)

	w, c := imageRequest(t, "task-1", "3")
	h.Get(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "png-bytes" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestImageHandlerRejectsNegativeIndex(t *testing.T) {
	h := NewImageHandler(&fakeImageStore{})

	w, c := imageRequest(t, "task-1", "-1")
	h.Get(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
