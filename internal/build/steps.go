package build

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/dirbuilder/internal/fsops"
	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
	"git.home.luguber.info/inful/dirbuilder/internal/observability"
	"git.home.luguber.info/inful/dirbuilder/internal/provenance"
	"git.home.luguber.info/inful/dirbuilder/internal/shell"
)

func (e *Engine) stageClean(ctx context.Context, bs *buildState) error {
	if err := e.deps.Remover.RemoveAll(bs.cfg.DestRoot); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Destination cleaned", logfields.Path(bs.cfg.DestRoot))
	return nil
}

// stageProvenanceCapture never fails: missing or unreadable source control
// info only drops the git line from .buildinfo.
func (e *Engine) stageProvenanceCapture(ctx context.Context, bs *buildState) error {
	info, err := e.deps.SourceControl.Inspect(bs.cfg.SourceRoot)
	switch {
	case err != nil:
		observability.WarnContext(ctx, "Could not read source control info; omitting it from provenance",
			logfields.Path(bs.cfg.SourceRoot), logfields.Error(err))
	case info == nil:
		observability.DebugContext(ctx, "No source control info", logfields.Path(bs.cfg.SourceRoot))
	case !info.Complete():
		observability.DebugContext(ctx, "Incomplete source control info; omitting it from provenance")
	default:
		bs.gitInfo = info
		observability.InfoContext(ctx, fmt.Sprintf("Git info: #%d %s %s", info.CommitCount, info.Branch, info.ShortHash))
	}
	return nil
}

func (e *Engine) stagePreCommands(ctx context.Context, bs *buildState) error {
	_, err := bs.sequencer.Run(ctx, shell.StagePre, bs.cfg.SourceRoot, bs.cfg.PreCommands)
	return err
}

// stageCopy creates the destination root so post commands always have a
// working directory, even when no file is selected.
func (e *Engine) stageCopy(ctx context.Context, bs *buildState) error {
	if err := os.MkdirAll(bs.cfg.DestRoot, 0o750); err != nil {
		return fmt.Errorf("create destination %s: %w", bs.cfg.DestRoot, err)
	}
	n, err := e.deps.Copier.Copy(ctx, []fsops.FileSet{{
		Patterns: bs.cfg.Files,
		BaseDir:  bs.cfg.CopyCwd,
	}}, bs.cfg.DestRoot)
	bs.report.FilesCopied += n
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Copied whitelist.", logfields.Count(n), logfields.Dir(bs.cfg.CopyCwd))
	return nil
}

func (e *Engine) stagePostCommands(ctx context.Context, bs *buildState) error {
	_, err := bs.sequencer.Run(ctx, shell.StagePost, bs.cfg.DestRoot, bs.cfg.PostCommands)
	return err
}

func (e *Engine) stageProvenanceWrite(ctx context.Context, bs *buildState) error {
	rec := provenance.Capture(e.now(), bs.gitInfo)
	path, err := provenance.Write(bs.cfg.DestRoot, rec)
	if err != nil {
		return err
	}
	bs.report.Provenance = rec.Render()
	observability.InfoContext(ctx, "Build info written", logfields.Path(path))
	return nil
}
