package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
	"github.com/sankethshetty99/discord-archiver/internal/gdrive"
	"github.com/sankethshetty99/discord-archiver/internal/logger"
	"github.com/sankethshetty99/discord-archiver/internal/pdf"
	"github.com/sankethshetty99/discord-archiver/internal/render"
	"github.com/sankethshetty99/discord-archiver/internal/retry"
	"github.com/sankethshetty99/discord-archiver/internal/sanitize"
	"github.com/sankethshetty99/discord-archiver/internal/summary"
)

// MessageSource fetches a channel's complete history, newest first.
type MessageSource interface {
	AllChannelMessages(ctx context.Context, channelID string) ([]discord.Message, error)
}

// Converter turns a rendered HTML file into a PDF file.
type Converter interface {
	Convert(ctx context.Context, htmlPath, pdfPath string) error
}

// WorkerDeps carries a worker's collaborators. Summarizer may be nil,
// which disables document summaries.
type WorkerDeps struct {
	Source     MessageSource
	Drive      gdrive.Store
	Converter  Converter
	Summarizer summary.Client
	Log        *slog.Logger
}

// Worker archives one channel end to end.
type Worker struct {
	cfg        config.Config
	source     MessageSource
	drive      gdrive.Store
	converter  Converter
	summarizer summary.Client
	log        *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// WorkerOption adjusts a Worker.
type WorkerOption func(*Worker)

// WithWorkerSleep replaces the wait between upload retries.
func WithWorkerSleep(sleep func(ctx context.Context, d time.Duration) error) WorkerOption {
	return func(w *Worker) { w.sleep = sleep }
}

// WithWorkerClock replaces the archive timestamp source.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) { w.now = now }
}

// NewWorker assembles a Worker from its collaborators.
func NewWorker(cfg config.Config, deps WorkerDeps, opts ...WorkerOption) *Worker {
	log := deps.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w := &Worker{
		cfg:        cfg,
		source:     deps.Source,
		drive:      deps.Drive,
		converter:  deps.Converter,
		summarizer: deps.Summarizer,
		log:        log.With("component", "worker"),
		sleep:      retry.Wait,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BuildWorker wires a Worker with production collaborators from
// configuration. Used by the worker subprocess and by inline mode.
func BuildWorker(ctx context.Context, cfg config.Config, log *slog.Logger) (*Worker, error) {
	source, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		return nil, fmt.Errorf("build discord client: %w", err)
	}

	svc, err := gdrive.NewService(ctx, cfg.Drive)
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	store, err := gdrive.NewStore(svc, cfg.Drive.RootFolder, log)
	if err != nil {
		return nil, err
	}

	converter := pdf.NewConverter(cfg.PDF.SettleDelay, cfg.PDF.ConvertTimeout, log)

	var summarizer summary.Client
	if cfg.SummaryEnabled() {
		summarizer, err = summary.NewClient(ctx, cfg.AI, log)
		if err != nil {
			// Summaries are optional; a broken AI setup must not block the
			// archive itself.
			log.Warn("Summary client unavailable, continuing without summaries", "error", err)
			summarizer = nil
		}
	}

	return NewWorker(cfg, WorkerDeps{
		Source:     source,
		Drive:      store,
		Converter:  converter,
		Summarizer: summarizer,
		Log:        log,
	}), nil
}

// Run archives one channel and always produces a terminal Result; faults
// are folded into it rather than returned. The pipeline short-circuits as
// soon as the channel turns out to be already archived or empty.
func (w *Worker) Run(ctx context.Context, job Job) Result {
	res := Result{
		ChannelID:   job.Channel.ID,
		ChannelName: job.Channel.Name,
		Category:    job.Channel.Category,
	}
	log := w.log.With("channel_id", job.Channel.ID, "channel", job.Channel.Name)

	guildSafe := sanitize.FileName(job.GuildName)
	categorySafe := sanitize.FileName(job.Channel.Category)
	nameSafe := sanitize.FileName(job.Channel.Name)
	pdfName := nameSafe + ".pdf"
	scratch := filepath.Join(w.cfg.Archive.ScratchDir, job.Channel.ID)

	rootID, err := w.drive.EnsureRootFolder(ctx)
	if err != nil {
		return w.fail(ctx, res, "resolve root folder", err)
	}
	guildFolderID, err := w.drive.EnsureFolder(ctx, guildSafe, rootID)
	if err != nil {
		return w.fail(ctx, res, "resolve guild folder", err)
	}
	categoryFolderID, err := w.drive.EnsureFolder(ctx, categorySafe, guildFolderID)
	if err != nil {
		return w.fail(ctx, res, "resolve category folder", err)
	}

	exists, err := w.drive.Exists(ctx, pdfName, categoryFolderID)
	if err != nil {
		return w.fail(ctx, res, "check existing archive", err)
	}
	if exists {
		log.InfoContext(ctx, "channel already archived, skipping")
		res.Status = StatusExists
		res.Detail = "Already archived"
		return res
	}

	messages, err := w.source.AllChannelMessages(ctx, job.Channel.ID)
	if err != nil {
		return w.fail(ctx, res, "fetch messages", err)
	}
	if len(messages) == 0 {
		if err := os.RemoveAll(scratch); err != nil {
			log.WarnContext(ctx, "could not remove stale scratch directory", "path", scratch, "error", err)
		}
		log.InfoContext(ctx, "channel has no messages")
		res.Status = StatusEmpty
		res.Detail = "No messages found"
		return res
	}
	log.InfoContext(ctx, "fetched channel history", "messages", len(messages))

	if err := os.RemoveAll(scratch); err != nil {
		return w.fail(ctx, res, "clear scratch directory", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return w.fail(ctx, res, "create scratch directory", err)
	}

	var summaryText string
	if w.summarizer != nil {
		summaryText, err = w.summarizer.Summarize(ctx, job.Channel.Name, messages)
		if err != nil {
			// The archive still has full value without the overview.
			log.WarnContext(ctx, "summary generation failed", "error", err)
			summaryText = ""
		}
	}

	html, err := render.Document(job.Channel.Name, messages, render.Options{
		ArchiveTime: w.now(),
		Summary:     summaryText,
	})
	if err != nil {
		return w.fail(ctx, res, "render document", err)
	}

	htmlPath := filepath.Join(scratch, nameSafe+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return w.fail(ctx, res, "write document", err)
	}

	pdfPath := filepath.Join(scratch, pdfName)
	if err := w.converter.Convert(ctx, htmlPath, pdfPath); err != nil {
		res.Status = StatusError
		res.Detail = fmt.Sprintf("PDF generation failed: %v", err)
		log.ErrorContext(ctx, "pdf conversion failed", "error", err)
		return res
	}

	if err := w.upload(ctx, pdfPath, pdfName, categoryFolderID); err != nil {
		backupPath, backupErr := w.backup(pdfPath, guildSafe, categorySafe, pdfName)
		if backupErr != nil {
			log.ErrorContext(ctx, "upload and local backup both failed",
				"upload_error", err, "backup_error", backupErr)
			res.Status = StatusError
			res.Detail = fmt.Sprintf("upload failed (%v) and local backup failed: %v", err, backupErr)
			return res
		}
		log.WarnContext(ctx, "upload failed, kept local copy", "path", backupPath, "error", err)
		res.Status = StatusError
		res.Detail = "Upload failed, saved locally: " + backupPath
		return res
	}

	if err := os.RemoveAll(scratch); err != nil {
		log.WarnContext(ctx, "could not remove scratch directory", "path", scratch, "error", err)
	}

	log.InfoContext(ctx, "channel archived",
		"pdf", pdfName, "folder_url", gdrive.FolderURL(categoryFolderID))
	res.Status = StatusSuccess
	res.Detail = "Done"
	return res
}

func (w *Worker) fail(ctx context.Context, res Result, step string, err error) Result {
	w.log.ErrorContext(ctx, "archive step failed",
		"channel_id", res.ChannelID, "step", step, "error", err)
	res.Status = StatusError
	res.Detail = fmt.Sprintf("%s: %v", step, err)
	return res
}

// upload pushes the PDF with bounded retries. Only connection-level
// faults are retried; anything else aborts straight to the local
// fallback.
func (w *Worker) upload(ctx context.Context, pdfPath, pdfName, folderID string) error {
	return retry.Do(ctx, retry.Config{
		MaxAttempts: w.cfg.Archive.UploadRetries,
		Backoff:     retry.ExponentialBackoff,
		Retryable:   transientUploadError,
		Sleep:       w.sleep,
	}, func(ctx context.Context) error {
		_, err := w.drive.UploadPDF(ctx, pdfPath, pdfName, folderID)
		return err
	})
}

// backup copies the PDF into the local fallback tree, mirroring the Drive
// hierarchy, and returns the destination path.
func (w *Worker) backup(pdfPath, guildSafe, categorySafe, pdfName string) (string, error) {
	dir := filepath.Join(w.cfg.Archive.BackupDir, guildSafe, categorySafe)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	dst := filepath.Join(dir, pdfName)
	if err := copyFile(pdfPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}

// RunWorker is the worker subprocess entry point: it decodes one Job from
// stdin, archives the channel, and writes the terminal Result JSON to
// stdout. The job carries the full configuration, so the worker logger is
// built from it here; logs go to stderr, stdout carries only the result.
func RunWorker(ctx context.Context, in io.Reader, out io.Writer) error {
	var job Job
	if err := json.NewDecoder(in).Decode(&job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	log := logger.NewWorkerLogger(job.Config.Logger.Level, job.Config.Logger.JSON)

	var res Result
	worker, err := BuildWorker(ctx, job.Config, log)
	if err != nil {
		res = Result{
			ChannelID:   job.Channel.ID,
			ChannelName: job.Channel.Name,
			Category:    job.Channel.Category,
			Status:      StatusError,
			Detail:      fmt.Sprintf("worker setup failed: %v", err),
		}
	} else {
		res = worker.Run(ctx, job)
	}

	if err := json.NewEncoder(out).Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
