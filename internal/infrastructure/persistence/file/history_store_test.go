package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/pkg/errors"
)

func newTestStore(t *testing.T) (*HistoryStore, string) {
	t.Helper()
	root := t.TempDir()
	tasksDir := filepath.Join(root, "tasks")
	store, err := NewHistoryStore(filepath.Join(root, "history"), tasksDir)
	if err != nil {
		t.Fatal(err)
	}
	return store, tasksDir
}

func sampleRecord(taskID string) *entity.HistoryRecord {
	return &entity.HistoryRecord{
		Title: "小镇的早晨",
		Outline: entity.OutlineResult{
			Outline: "[封面] 晨雾<page>[内容] 面包店",
			Pages: []entity.OutlinePage{
				{Index: 0, Type: entity.PageTypeCover, Content: "晨雾"},
				{Index: 1, Type: entity.PageTypeContent, Content: "面包店"},
			},
		},
		Images: entity.ImageSet{TaskID: taskID, Files: []string{"", ""}},
	}
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("task-a")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}
	if record.ID == "" {
		t.Fatal("create must assign an id")
	}
	if record.Status != entity.StatusDraft {
		t.Fatalf("status = %s, want draft for empty image set", record.Status)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != record.Title || len(got.Outline.Pages) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != record.ID {
		t.Fatalf("index = %+v, want single entry", entries)
	}
}

func TestHistoryStoreCreatePrependsNewest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord("t1")
	second := sampleRecord("t2")
	second.Title = "深夜书店"
	if err := store.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, second); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != second.ID {
		t.Fatalf("index order = %+v, want newest first", entries)
	}
}

func TestHistoryStoreUpdatePatchesIndex(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("task-b")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}

	record.Images.Files = []string{"0.png", "1.png"}
	record.Status = entity.StatusCompleted
	record.Thumbnail = "thumb_0.png"
	if err := store.Update(ctx, record); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Status != entity.StatusCompleted || entries[0].ImageCount != 2 {
		t.Fatalf("index entry = %+v, want patched status and counts", entries[0])
	}
	if entries[0].Thumbnail != "thumb_0.png" {
		t.Fatalf("index thumbnail = %q", entries[0].Thumbnail)
	}
}

func TestHistoryStoreUpdateMissing(t *testing.T) {
	store, _ := newTestStore(t)

	record := sampleRecord("none")
	record.ID = "ghost"
	if err := store.Update(context.Background(), record); err != errors.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestHistoryStoreDeleteRemovesEverything(t *testing.T) {
	store, tasksDir := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("task-del")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}
	taskDir := filepath.Join(tasksDir, "task-del")
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "0.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, record.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetByID(ctx, record.ID); err != errors.ErrRecordNotFound {
		t.Fatalf("get after delete = %v, want ErrRecordNotFound", err)
	}
	if _, err := os.Stat(taskDir); !os.IsNotExist(err) {
		t.Fatal("task directory must be removed with the record")
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("index = %+v, want empty", entries)
	}
}

func TestHistoryStoreDeleteRefusesUnsafeTaskID(t *testing.T) {
	store, tasksDir := newTestStore(t)
	ctx := context.Background()

	// 恶意任务 ID 会把删除目标解析到数据根目录
	record := sampleRecord("..")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}
	bystander := sampleRecord("task-keep")
	if err := store.Create(ctx, bystander); err != nil {
		t.Fatal(err)
	}
	keepDir := filepath.Join(tasksDir, "task-keep")
	if err := os.MkdirAll(keepDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, record.ID); err != nil {
		t.Fatal(err)
	}

	// 记录本身删掉，但路径拼接被拒绝，其他数据毫发无损
	if _, err := store.GetByID(ctx, record.ID); err != errors.ErrRecordNotFound {
		t.Fatalf("get after delete = %v, want ErrRecordNotFound", err)
	}
	if _, err := store.GetByID(ctx, bystander.ID); err != nil {
		t.Fatalf("bystander record lost: %v", err)
	}
	if _, err := os.Stat(keepDir); err != nil {
		t.Fatalf("bystander task directory lost: %v", err)
	}
	if _, err := os.Stat(tasksDir); err != nil {
		t.Fatalf("tasks directory lost: %v", err)
	}
}

func TestHistoryStoreSearch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a := sampleRecord("t1")
	a.Title = "海边的夏天"
	b := sampleRecord("t2")
	b.Title = "冬日森林"
	if err := store.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatal(err)
	}

	got, err := store.Search(ctx, "夏天")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("search = %+v, want only matching title", got)
	}
}

func TestHistoryStoreFindByTaskID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("task-find")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}

	got, err := store.FindByTaskID(ctx, "task-find")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != record.ID {
		t.Fatalf("found %s, want %s", got.ID, record.ID)
	}

	if _, err := store.FindByTaskID(ctx, "nope"); err != errors.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestScanTasksRepairsDrift(t *testing.T) {
	store, tasksDir := newTestStore(t)
	ctx := context.Background()

	// 记录声称两页都没有图，但磁盘上第 0 页已存在
	record := sampleRecord("task-scan")
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}
	taskDir := filepath.Join(tasksDir, "task-scan")
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "0.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "thumb_0.png"), []byte("th"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := store.ScanTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Repaired) != 1 || report.Repaired[0] != record.ID {
		t.Fatalf("repaired = %v, want [%s]", report.Repaired, record.ID)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != entity.StatusPartial {
		t.Fatalf("status = %s, want partial after repair", got.Status)
	}
	if got.Images.Files[0] != "0.png" || got.Images.Files[1] != "" {
		t.Fatalf("files = %v, want rebuilt from disk", got.Images.Files)
	}
	if got.Thumbnail != "thumb_0.png" {
		t.Fatalf("thumbnail = %q, want thumb_0.png", got.Thumbnail)
	}
}

func TestScanTasksKeepsThumbnailOfNonZeroCover(t *testing.T) {
	store, tasksDir := newTestStore(t)
	ctx := context.Background()

	// 封面在第 1 页，缩略图也跟着封面索引
	record := &entity.HistoryRecord{
		Title: "环游世界",
		Outline: entity.OutlineResult{
			Pages: []entity.OutlinePage{
				{Index: 0, Type: entity.PageTypeContent, Content: "出发"},
				{Index: 1, Type: entity.PageTypeCover, Content: "地球"},
			},
		},
		Images: entity.ImageSet{TaskID: "task-late-cover", Files: []string{"", ""}},
	}
	if err := store.Create(ctx, record); err != nil {
		t.Fatal(err)
	}
	taskDir := filepath.Join(tasksDir, "task-late-cover")
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "1.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "thumb_1.png"), []byte("th"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.ScanTasks(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Thumbnail != "thumb_1.png" {
		t.Fatalf("thumbnail = %q, want thumb_1.png", got.Thumbnail)
	}
	if got.Images.Files[1] != "1.png" {
		t.Fatalf("files = %v, want cover image recorded", got.Images.Files)
	}
}

func TestScanTasksReportsOrphans(t *testing.T) {
	store, tasksDir := newTestStore(t)

	if err := os.MkdirAll(filepath.Join(tasksDir, "orphan-task"), 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := store.ScanTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != "orphan-task" {
		t.Fatalf("orphans = %v, want [orphan-task]", report.Orphans)
	}
}
