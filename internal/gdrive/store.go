// Package gdrive stores archived documents in Google Drive under a fixed
// three-level hierarchy: a root folder holding one folder per guild, which
// holds one folder per category, which holds one PDF per channel.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/sankethshetty99/discord-archiver/internal/retry"
	"github.com/sankethshetty99/discord-archiver/internal/sanitize"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"
	pdfMIMEType    = "application/pdf"
)

// Store is the interface for the archive's Drive hierarchy.
type Store interface {
	// EnsureFolder returns the id of the named folder under parentID,
	// creating it when absent. An empty parentID addresses the drive root.
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)

	// EnsureRootFolder resolves the configured root archive folder.
	EnsureRootFolder(ctx context.Context) (string, error)

	// Exists reports whether a file with the exact name lives in folderID.
	Exists(ctx context.Context, name, folderID string) (bool, error)

	// UploadPDF streams a local file into folderID under the given name and
	// returns the created file id.
	UploadPDF(ctx context.Context, localPath, name, folderID string) (string, error)

	// ListArchives returns the channel stems already archived for a guild,
	// keyed by PDF name without the extension.
	ListArchives(ctx context.Context, guildName string) (map[string]struct{}, error)
}

type driveStore struct {
	svc        *drive.Service
	rootFolder string
	log        *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option adjusts a Store.
type Option func(*driveStore)

// WithSleep replaces the wait used during folder-creation race recovery.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *driveStore) { s.sleep = sleep }
}

// NewStore wraps an authenticated Drive service. rootFolder names the
// top-level archive folder all guild folders live under.
func NewStore(svc *drive.Service, rootFolder string, log *slog.Logger, opts ...Option) (Store, error) {
	if svc == nil {
		return nil, errors.New("drive service is nil")
	}
	if rootFolder == "" {
		return nil, errors.New("root folder name is empty")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &driveStore{
		svc:        svc,
		rootFolder: rootFolder,
		log:        log.With("component", "drive_store"),
		sleep:      retry.Wait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FolderURL returns the browser link for a Drive folder id.
func FolderURL(folderID string) string {
	return "https://drive.google.com/drive/folders/" + folderID
}

func (s *driveStore) EnsureRootFolder(ctx context.Context) (string, error) {
	return s.EnsureFolder(ctx, s.rootFolder, "")
}

func (s *driveStore) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := s.findFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id, createErr := s.createFolder(ctx, name, parentID)
	if createErr == nil {
		return id, nil
	}

	// A sibling worker may have created the folder between the lookup and
	// the create. Give the listing a moment to catch up and look again
	// before treating the failure as real.
	s.log.WarnContext(ctx, "folder create failed, re-checking", "name", name, "error", createErr)
	if err := s.sleep(ctx, time.Second); err != nil {
		return "", err
	}
	id, err = s.findFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return s.createFolder(ctx, name, parentID)
}

func (s *driveStore) Exists(ctx context.Context, name, folderID string) (bool, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false",
		escapeQueryTerm(name), escapeQueryTerm(folderID))
	list, err := s.svc.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("look up %q: %w", name, err)
	}
	return len(list.Files) > 0, nil
}

func (s *driveStore) UploadPDF(ctx context.Context, localPath, name, folderID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name, Parents: []string{folderID}}
	created, err := s.svc.Files.Create(meta).
		Media(f, googleapi.ContentType(pdfMIMEType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	s.log.DebugContext(ctx, "uploaded document", "name", name, "file_id", created.Id)
	return created.Id, nil
}

func (s *driveStore) ListArchives(ctx context.Context, guildName string) (map[string]struct{}, error) {
	archives := make(map[string]struct{})

	rootID, err := s.EnsureRootFolder(ctx)
	if err != nil {
		return nil, err
	}

	// A guild that was never archived has no folder; that is an empty
	// result, not an error.
	guildID, err := s.findFolder(ctx, sanitize.FileName(guildName), rootID)
	if err != nil {
		return nil, err
	}
	if guildID == "" {
		return archives, nil
	}

	// Depth is fixed at guild, category, document, so two listing passes
	// cover the whole subtree.
	var categoryIDs []string
	catQuery := fmt.Sprintf("mimeType='%s' and '%s' in parents and trashed=false", folderMIMEType, guildID)
	err = s.svc.Files.List().
		Q(catQuery).
		Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				categoryIDs = append(categoryIDs, f.Id)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list category folders: %w", err)
	}

	for _, catID := range categoryIDs {
		pdfQuery := fmt.Sprintf("mimeType='%s' and '%s' in parents and trashed=false", pdfMIMEType, catID)
		err = s.svc.Files.List().
			Q(pdfQuery).
			Fields("nextPageToken, files(name)").
			Pages(ctx, func(page *drive.FileList) error {
				for _, f := range page.Files {
					if stem, ok := strings.CutSuffix(f.Name, ".pdf"); ok {
						archives[stem] = struct{}{}
					}
				}
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("list archived documents: %w", err)
		}
	}

	return archives, nil
}

func (s *driveStore) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMIMEType, escapeQueryTerm(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQueryTerm(parentID))
	}
	list, err := s.svc.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list folders named %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (s *driveStore) createFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{Name: name, MimeType: folderMIMEType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := s.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	s.log.DebugContext(ctx, "created folder", "name", name, "folder_id", created.Id)
	return created.Id, nil
}

// escapeQueryTerm makes a value safe to embed in a Drive search query,
// which delimits strings with single quotes.
func escapeQueryTerm(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
