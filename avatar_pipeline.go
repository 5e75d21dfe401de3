package identity

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// DefaultAvatarSize is the square dimension every stored avatar is
// normalized to.
const DefaultAvatarSize = 250

// AvatarPipeline ingests uploaded profile images: it moves the temp file
// into the permanent avatar directory under an identity derived name,
// normalizes it to a fixed square, and links it to the identity.
//
// The permanent name is <userID><ext>, so a re-upload overwrites instead of
// accumulating files. Concurrent uploads for the same identity race
// last-writer-wins on that name; temp cleanup still applies per request.
type AvatarPipeline struct {
	repo   RepositoryManager
	dir    string
	size   int
	logger Logger
}

// NewAvatarPipeline returns a pipeline writing into dir
func NewAvatarPipeline(repo RepositoryManager, dir string) *AvatarPipeline {
	return &AvatarPipeline{
		repo:   repo,
		dir:    dir,
		size:   DefaultAvatarSize,
		logger: defLogger{},
	}
}

func (p *AvatarPipeline) WithLogger(logger Logger) *AvatarPipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// SetAvatar runs the ingestion steps for one upload and returns the stored
// avatar reference. On any failure before the move the temp file is deleted
// prior to propagating the error. A resize failure after a successful move
// keeps the moved file in place: an unnormalized image beats none.
func (p *AvatarPipeline) SetAvatar(ctx context.Context, userID uuid.UUID, tempPath, originalFilename string) (string, error) {
	src, err := imaging.Open(tempPath)
	if err != nil {
		p.removeTemp(tempPath)
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to decode avatar image").
			WithCode(goerrors.CodeBadRequest)
	}

	filename := userID.String() + strings.ToLower(filepath.Ext(originalFilename))
	dest := filepath.Join(p.dir, filename)

	if err := os.Rename(tempPath, dest); err != nil {
		p.removeTemp(tempPath)
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to move avatar into place")
	}

	resized := imaging.Fill(src, p.size, p.size, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(resized, dest); err != nil {
		// the moved original stays on disk uncorrected
		p.logger.Warn("avatar resize failed, keeping unresized file", "path", dest, "error", err)
	}

	url := "/avatars/" + filename

	if err := p.repo.Users().SetAvatarURL(ctx, userID, url); err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrUserNotFound
		}
		// file remains on disk unlinked; reconciliation tooling picks it up
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to link avatar to user")
	}

	return url, nil
}

func (p *AvatarPipeline) removeTemp(tempPath string) {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("unable to remove temp upload", "path", tempPath, "error", err)
	}
}
