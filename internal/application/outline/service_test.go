package outline

import (
	"context"
	"testing"

	"ai-picbook-api/pkg/errors"
)

type staticText struct {
	reply string
	err   error
}

func (s staticText) Complete(ctx context.Context, system, user string) (string, error) {
	return s.reply, s.err
}

func TestServiceGenerate(t *testing.T) {
	svc := NewService(staticText{reply: "[封面] 山谷\n<page>[内容] 溪流\n<page>[总结] 黄昏"})

	result, err := svc.Generate(context.Background(), "山谷", 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(result.Pages))
	}
	if !result.UsedReference {
		t.Fatal("used_reference flag lost")
	}
	if result.Outline == "" {
		t.Fatal("raw outline must be preserved")
	}
}

func TestServiceGenerateEmptyOutline(t *testing.T) {
	svc := NewService(staticText{reply: "   "})

	_, err := svc.Generate(context.Background(), "空主题", 3, false)
	if err == nil {
		t.Fatal("want error for unparsable outline")
	}
	if errors.AsAppError(err).Code != errors.CodeOutlineEmpty {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeOutlineEmpty)
	}
}

func TestServiceGenerateProviderError(t *testing.T) {
	svc := NewService(staticText{err: errors.New(errors.CodeProviderAuth, "bad key")})

	_, err := svc.Generate(context.Background(), "主题", 3, false)
	if err == nil {
		t.Fatal("want error when provider fails")
	}
	if errors.AsAppError(err).Code != errors.CodeGenerationFailed {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeGenerationFailed)
	}
}
