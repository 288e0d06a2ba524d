package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// Archive serves datasets and exam images from a local directory. It accepts
// file:// URLs and plain paths; relative paths resolve against the base path.
type Archive struct {
	basePath string
}

func New(basePath string) (*Archive, error) {
	if basePath == "" {
		basePath = "."
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat archive dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive path %s is not a directory", basePath)
	}
	return &Archive{basePath: basePath}, nil
}

func (a *Archive) Fetch(ctx context.Context, locator string) (*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := a.resolvePath(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open file %s: %w", path, err)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "open file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return &domain.Resource{
		Locator:     locator,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

func (a *Archive) resolvePath(locator string) (string, error) {
	raw := locator
	if strings.HasPrefix(locator, "file://") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "parse file locator", err)
		}
		raw = u.Host + u.Path
	} else if unescaped, err := url.PathUnescape(locator); err == nil {
		raw = unescaped
	}
	if raw == "" {
		return "", domain.Errorf(domain.ErrInvalidInput, "resolve file", "empty path in %q", locator)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}
	return filepath.Join(a.basePath, filepath.FromSlash(raw)), nil
}
