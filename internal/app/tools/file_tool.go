package tools

import (
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// FileTool writes generic documents into the active project's file tree.
// It runs without approval, so it refuses when no project is active.
type FileTool struct {
	files domain.FileMutator
	now   func() time.Time
}

func NewFileTool(files domain.FileMutator) *FileTool {
	return &FileTool{files: files, now: time.Now}
}

func (t *FileTool) Name() string            { return "project_files" }
func (t *FileTool) Kind() domain.ActionKind { return domain.ActionDocument }

func (t *FileTool) Call(ctx context.Context, tctx ToolContext, payload toolcall.Payload) (Result, error) {
	p, ok := payload.(toolcall.DocumentPayload)
	if !ok {
		return Result{}, fmt.Errorf("project_files: unexpected payload %T", payload)
	}
	if tctx.ProjectID == "" {
		return refused("No project is active, so %q was not saved.", p.FileName), nil
	}

	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(p.FileName))
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	file, err := t.files.UpsertFile(ctx, tctx.ProjectID, domain.File{
		ID:        domain.FileID(domain.NewID()),
		Name:      path.Base(p.FileName),
		MIMEType:  mimeType,
		Content:   p.Content,
		Folder:    "Generated",
		UpdatedAt: t.now(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("project_files: upsert: %w", err)
	}
	return applied("Saved %q to the project files.", file.Name), nil
}
