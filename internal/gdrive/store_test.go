package gdrive_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/sankethshetty99/discord-archiver/internal/gdrive"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func newTestStore(t *testing.T, handler http.Handler) (gdrive.Store, *sleepRecorder) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("building drive service: %v", err)
	}

	rec := &sleepRecorder{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := gdrive.NewStore(svc, "Discord Archive", log, gdrive.WithSleep(rec.sleep))
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	return store, rec
}

func writeList(t *testing.T, w http.ResponseWriter, files ...*drive.File) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&drive.FileList{Files: files}); err != nil {
		t.Errorf("encoding file list: %v", err)
	}
}

func TestEnsureFolderFindsExisting(t *testing.T) {
	t.Parallel()

	var creates int
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			creates++
			http.Error(w, "unexpected create", http.StatusBadRequest)
			return
		}
		q := r.URL.Query().Get("q")
		if !strings.Contains(q, "name='general'") || !strings.Contains(q, "'parent-1' in parents") {
			t.Errorf("unexpected query %q", q)
		}
		writeList(t, w, &drive.File{Id: "folder-9", Name: "general"})
	}))

	id, err := store.EnsureFolder(context.Background(), "general", "parent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "folder-9" {
		t.Errorf("folder id = %q, want folder-9", id)
	}
	if creates != 0 {
		t.Errorf("existing folder should not be re-created")
	}
}

func TestEnsureFolderCreates(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeList(t, w)
			return
		}
		var meta struct {
			Name     string   `json:"name"`
			MimeType string   `json:"mimeType"`
			Parents  []string `json:"parents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			t.Errorf("decoding create body: %v", err)
		}
		if meta.Name != "general" || meta.MimeType != "application/vnd.google-apps.folder" {
			t.Errorf("unexpected create metadata %+v", meta)
		}
		if len(meta.Parents) != 1 || meta.Parents[0] != "parent-1" {
			t.Errorf("unexpected parents %v", meta.Parents)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&drive.File{Id: "folder-new"})
	}))

	id, err := store.EnsureFolder(context.Background(), "general", "parent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "folder-new" {
		t.Errorf("folder id = %q, want folder-new", id)
	}
}

func TestEnsureFolderRaceRecovery(t *testing.T) {
	t.Parallel()

	var lists, creates int
	store, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			creates++
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		lists++
		if lists == 1 {
			// Folder not visible yet; the create below will collide with a
			// sibling worker.
			writeList(t, w)
			return
		}
		writeList(t, w, &drive.File{Id: "folder-race"})
	}))

	id, err := store.EnsureFolder(context.Background(), "general", "parent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "folder-race" {
		t.Errorf("folder id = %q, want folder-race", id)
	}
	if creates != 1 {
		t.Errorf("creates = %d, want 1", creates)
	}
	if lists != 2 {
		t.Errorf("lists = %d, want 2", lists)
	}
	if len(rec.waits) != 1 || rec.waits[0] != time.Second {
		t.Errorf("waits = %v, want one second-long wait", rec.waits)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if strings.Contains(q, "name='general.pdf'") {
			writeList(t, w, &drive.File{Id: "pdf-1"})
			return
		}
		writeList(t, w)
	}))

	ok, err := store.Exists(context.Background(), "general.pdf", "folder-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("expected general.pdf to exist")
	}

	ok, err = store.Exists(context.Background(), "missing.pdf", "folder-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected missing.pdf to be absent")
	}
}

func TestUploadPDF(t *testing.T) {
	t.Parallel()

	pdfPath := filepath.Join(t.TempDir(), "general.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake body"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/upload/") {
			t.Errorf("upload hit %s, want the media upload path", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading upload body: %v", err)
		}
		if !strings.Contains(string(body), "%PDF-1.4 fake body") {
			t.Errorf("upload body is missing the document bytes")
		}
		if !strings.Contains(string(body), `"name":"general.pdf"`) {
			t.Errorf("upload body is missing the file metadata")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&drive.File{Id: "uploaded-1"})
	}))

	id, err := store.UploadPDF(context.Background(), pdfPath, "general.pdf", "folder-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "uploaded-1" {
		t.Errorf("file id = %q, want uploaded-1", id)
	}
}

func TestListArchives(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, "name='Discord Archive'"):
			writeList(t, w, &drive.File{Id: "root-1"})
		case strings.Contains(q, "name='My Guild'"):
			writeList(t, w, &drive.File{Id: "guild-1"})
		case strings.Contains(q, "mimeType='application/vnd.google-apps.folder'") && strings.Contains(q, "'guild-1' in parents"):
			writeList(t, w, &drive.File{Id: "cat-1", Name: "General"}, &drive.File{Id: "cat-2", Name: "Voice Logs"})
		case strings.Contains(q, "mimeType='application/pdf'") && strings.Contains(q, "'cat-1' in parents"):
			writeList(t, w, &drive.File{Name: "general.pdf"}, &drive.File{Name: "notes.txt"})
		case strings.Contains(q, "mimeType='application/pdf'") && strings.Contains(q, "'cat-2' in parents"):
			writeList(t, w, &drive.File{Name: "standup.pdf"})
		default:
			t.Errorf("unexpected query %q", q)
			writeList(t, w)
		}
	}))

	archives, err := store.ListArchives(context.Background(), "My Guild!!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"general", "standup"}
	if len(archives) != len(want) {
		t.Fatalf("archives = %v, want %v", archives, want)
	}
	for _, name := range want {
		if _, ok := archives[name]; !ok {
			t.Errorf("archives missing %q", name)
		}
	}
}

func TestListArchivesGuildMissing(t *testing.T) {
	t.Parallel()

	var requests int
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		q := r.URL.Query().Get("q")
		if strings.Contains(q, "name='Discord Archive'") {
			writeList(t, w, &drive.File{Id: "root-1"})
			return
		}
		writeList(t, w)
	}))

	archives, err := store.ListArchives(context.Background(), "Ghost Guild")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archives) != 0 {
		t.Errorf("archives = %v, want none", archives)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (root lookup plus guild lookup)", requests)
	}
}
