package orchestrators

import (
	"context"
	"log/slog"

	"petnotice/internal/adapters/email"
	"petnotice/internal/domain/notice"
)

// NoticeStoreForOrchestrator defines the store interface needed by notice orchestrators.
type NoticeStoreForOrchestrator interface {
	Create(ctx context.Context, title, content, imagePath string) (notice.Notice, error)
}

// --- Create Notice ---

// CreateNoticeInput carries input for the create notice orchestrator.
type CreateNoticeInput struct {
	Title     string
	Content   string
	ImagePath string // public path of an already-stored upload, empty for none
}

// CreateNoticeDeps holds dependencies for CreateNotice.
type CreateNoticeDeps struct {
	NoticeStore NoticeStoreForOrchestrator
	EmailSender email.Sender        // optional; nil disables notification
	NotifyTo    string              // optional recipient for creation notifications
	RenderHTML  func(string) string // renders Markdown content for the e-mail body
}

// ExecuteCreateNotice validates and persists a new notice, then notifies the
// configured recipient best-effort. A failed notification never fails the
// create: the row is already durable and the caller gets it back.
// PRE: ImagePath (if set) refers to a file already written to the upload dir
// POST: Exactly one row persisted; returned Notice carries ID and CreatedAt
func ExecuteCreateNotice(ctx context.Context, input CreateNoticeInput, deps CreateNoticeDeps) (notice.Notice, error) {
	n := notice.Notice{
		Title:     input.Title,
		Content:   input.Content,
		ImagePath: input.ImagePath,
	}
	if err := n.Validate(); err != nil {
		return notice.Notice{}, err
	}

	created, err := deps.NoticeStore.Create(ctx, input.Title, input.Content, input.ImagePath)
	if err != nil {
		return notice.Notice{}, err
	}

	slog.Info("notice_event", "event", "notice_created", "notice_id", created.ID, "has_image", created.HasImage())

	if deps.EmailSender != nil && deps.NotifyTo != "" {
		body := created.Content
		if deps.RenderHTML != nil {
			body = deps.RenderHTML(created.Content)
		}
		_, sendErr := deps.EmailSender.Send(ctx, email.SendRequest{
			To:      []string{deps.NotifyTo},
			Subject: "New notice: " + created.Title,
			HTML:    body,
		})
		if sendErr != nil {
			slog.Warn("notice_notify_failed", "notice_id", created.ID, "error", sendErr.Error())
		}
	}

	return created, nil
}
