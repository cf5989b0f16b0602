package folderstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/docstore"
	"github.com/starford/docsadmin/internal/testutil"
)

func newStore(t *testing.T) (string, *Store) {
	t.Helper()
	dir, fs := testutil.ContentRoot(t)
	return dir, New(fs, nil)
}

func TestCreate(t *testing.T) {
	dir, s := newStore(t)
	ctx := context.Background()

	rel, err := s.Create(ctx, "guides/advanced")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rel != "guides/advanced" {
		t.Errorf("rel = %q", rel)
	}
	if info, err := os.Stat(filepath.Join(dir, "guides", "advanced")); err != nil || !info.IsDir() {
		t.Fatalf("folder not created: %v", err)
	}
	if _, err := s.Create(ctx, "guides/advanced"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := s.Create(ctx, "../.."); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty err = %v", err)
	}
}

func TestDeleteEmptyWithoutForce(t *testing.T) {
	dir, s := newStore(t)
	if err := os.Mkdir(filepath.Join(dir, "empty-dir"), 0o755); err != nil {
		t.Fatal(err)
	}
	res, err := s.Delete(context.Background(), "empty-dir", false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Recursive || res.Report.TotalItems != 0 {
		t.Errorf("res = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty-dir")); !os.IsNotExist(err) {
		t.Error("folder still present")
	}
}

func TestDeleteNotEmptyReportsCounts(t *testing.T) {
	dir, s := newStore(t)
	ctx := context.Background()
	testutil.WriteFile(t, dir, "full/a.md", testutil.Doc("A", "", ""))
	testutil.WriteFile(t, dir, "full/b.mdx", testutil.Doc("B", "", ""))
	testutil.WriteFile(t, dir, "full/c.png", "png")
	testutil.WriteFile(t, dir, "full/sub1/x.md", testutil.Doc("X", "", ""))
	testutil.WriteFile(t, dir, "full/sub2/deep/deeper/y.md", testutil.Doc("Y", "", ""))

	_, err := s.Delete(ctx, "full", false)
	var ne *apperr.NotEmptyError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NotEmptyError", err)
	}
	if !errors.Is(err, apperr.ErrNotEmpty) {
		t.Error("NotEmptyError must match ErrNotEmpty")
	}
	if ne.FilesCount != 3 || ne.FoldersCount != 2 || ne.TotalItems != 5 {
		t.Errorf("counts = %+v", ne)
	}
	if _, err := os.Stat(filepath.Join(dir, "full", "a.md")); err != nil {
		t.Error("non-forced delete must not touch the folder")
	}

	res, err := s.Delete(ctx, "full", true)
	if err != nil {
		t.Fatalf("forced Delete: %v", err)
	}
	if !res.Recursive || res.Report.TotalItems != 5 {
		t.Errorf("res = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "full")); !os.IsNotExist(err) {
		t.Error("folder still present after force delete")
	}
}

func TestDeleteThenParentListingOmitsFolder(t *testing.T) {
	dir, fs := testutil.ContentRoot(t)
	s := New(fs, nil)
	docs := docstore.New(fs, nil)
	ctx := context.Background()
	testutil.WriteFile(t, dir, "parent/child/a.md", testutil.Doc("A", "", ""))
	testutil.WriteFile(t, dir, "parent/keep/b.md", testutil.Doc("B", "", ""))

	if _, err := s.Delete(ctx, "parent/child", true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	l, err := docs.List(ctx, "parent")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(l.Folders) != 1 || l.Folders[0] != "keep" {
		t.Errorf("folders = %v", l.Folders)
	}
}

func TestDeleteErrors(t *testing.T) {
	dir, s := newStore(t)
	ctx := context.Background()
	testutil.WriteFile(t, dir, "file.md", testutil.Doc("F", "", ""))

	if _, err := s.Delete(ctx, "missing", false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := s.Delete(ctx, "file.md", true); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("file err = %v", err)
	}
	for _, root := range []string{"", "/", "..", "../../"} {
		if _, err := s.Delete(ctx, root, true); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Delete(%q) err = %v", root, err)
		}
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("content root removed: %v", err)
	}
}

func TestInspect(t *testing.T) {
	dir, s := newStore(t)
	testutil.WriteFile(t, dir, "x/a.md", "a")
	testutil.WriteFile(t, dir, "x/y/b.md", "b")
	rep, err := s.Inspect(context.Background(), "x")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.FilesCount != 1 || rep.FoldersCount != 1 || rep.TotalItems != 2 {
		t.Errorf("rep = %+v", rep)
	}
}

func TestPathThroughFile(t *testing.T) {
	dir, s := newStore(t)
	ctx := context.Background()
	if err := os.WriteFile(filepath.Join(dir, "a.mdx"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, "a.mdx/sub"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Create err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Delete(ctx, "a.mdx/sub", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
	if _, err := s.Inspect(ctx, "a.mdx/sub"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Inspect err = %v, want ErrNotFound", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "a.mdx")); err != nil || info.IsDir() {
		t.Errorf("a.mdx changed: %v", err)
	}
}
