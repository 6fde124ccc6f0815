package file

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"ai-picbook-api/pkg/errors"
)

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(32, 32, color.NRGBA{R: 120, G: 180, B: 240, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageStoreSaveAndLoad(t *testing.T) {
	tasksDir := t.TempDir()
	store, err := NewImageStore(tasksDir, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	data := smallPNG(t)

	name, err := store.Save(ctx, "task-1", 2, data)
	if err != nil {
		t.Fatal(err)
	}
	if name != "2.png" {
		t.Fatalf("name = %q, want 2.png", name)
	}

	got, err := store.Load(ctx, "task-1", 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("loaded image differs from saved data")
	}

	thumb, err := store.Load(ctx, "task-1", 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := imaging.Decode(bytes.NewReader(thumb)); err != nil {
		t.Fatalf("thumbnail is not a decodable image: %v", err)
	}
}

func TestImageStoreSaveUndecodableSkipsThumbnail(t *testing.T) {
	tasksDir := t.TempDir()
	store, err := NewImageStore(tasksDir, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// 原图是正源，缩略图失败不应让保存失败
	name, err := store.Save(ctx, "task-2", 0, []byte("not-an-image"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "0.png" {
		t.Fatalf("name = %q, want 0.png", name)
	}

	if _, err := os.Stat(filepath.Join(tasksDir, "task-2", "thumb_0.png")); !os.IsNotExist(err) {
		t.Fatal("thumbnail must not exist for undecodable input")
	}
	if _, err := store.Load(ctx, "task-2", 0, true); err != errors.ErrImageNotFound {
		t.Fatalf("thumb load = %v, want ErrImageNotFound", err)
	}
}

func TestImageStoreRejectsUnsafeTaskID(t *testing.T) {
	root := t.TempDir()
	tasksDir := filepath.Join(root, "tasks")
	store, err := NewImageStore(tasksDir, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, taskID := range []string{"..", "../escape", "a/b", ""} {
		if _, err := store.Save(ctx, taskID, 0, smallPNG(t)); errors.AsAppError(err).Code != errors.CodeInvalidParam {
			t.Fatalf("Save(%q) err = %v, want invalid param", taskID, err)
		}
		if _, err := store.Load(ctx, taskID, 0, false); errors.AsAppError(err).Code != errors.CodeInvalidParam {
			t.Fatalf("Load(%q) err = %v, want invalid param", taskID, err)
		}
	}

	// 任何路径都不能写到任务目录之外
	if _, err := os.Stat(filepath.Join(root, "0.png")); !os.IsNotExist(err) {
		t.Fatal("image escaped the tasks directory")
	}
}

func TestImageStoreLoadMissing(t *testing.T) {
	store, err := NewImageStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(context.Background(), "nope", 0, false); err != errors.ErrImageNotFound {
		t.Fatalf("err = %v, want ErrImageNotFound", err)
	}
}
