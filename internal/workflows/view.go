package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backend"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/grants"
	"github.com/PolarWolf314/sealreel/internal/integrity"
)

// ViewOptions configures View.
type ViewOptions struct {
	ContentID  string
	OutputPath string
}

// ViewResult contains the outcome of View.
type ViewResult struct {
	OutputPath string
	Title      string
	Size       int

	// SignatureVerified is true if a configured server key verified the
	// download's signature.
	SignatureVerified bool
}

// View downloads content the user owns or was granted, checks the server
// signature when a signing key is configured, then unwraps and decrypts.
// Nothing is written unless decryption authenticates.
func View(ctx context.Context, env *Env, opts ViewOptions) (*ViewResult, error) {
	item, err := findContent(ctx, env, opts.ContentID)
	if err != nil {
		return nil, err
	}

	dl, err := env.Client.Download(ctx, opts.ContentID)
	if err != nil {
		return nil, err
	}

	result := &ViewResult{Title: item.Title}

	serverKey, err := env.Config.SigningKey()
	if err != nil {
		return nil, err
	}
	if serverKey != "" {
		if dl.Signature == "" {
			return nil, fmt.Errorf("%w: download carries no signature", kerrors.ErrSignatureInvalid)
		}
		if err := integrity.VerifySignature(integrity.Digest(dl.Content), dl.Signature, serverKey); err != nil {
			return nil, err
		}
		result.SignatureVerified = true
	}

	plaintext, err := grants.Open(ctx, env.Wrapper, item.Key(), dl.Content)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, plaintext, 0600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", opts.OutputPath, err)
		}
		result.OutputPath = opts.OutputPath
	} else {
		// The title comes from the server, so never clobber an existing file.
		path, err := writeNewFile(viewPathCandidates(item), plaintext)
		if err != nil {
			return nil, err
		}
		result.OutputPath = path
	}
	result.Size = len(plaintext)

	entry := audit.NewEntry(audit.OpView, env.Config)
	entry.ContentID = opts.ContentID
	entry.Path = result.OutputPath
	audit.Log(entry)

	return result, nil
}

// ListContent returns the items the user owns or was granted.
func ListContent(ctx context.Context, env *Env) ([]backend.ContentItem, error) {
	return env.Client.AccessibleContent(ctx)
}

func findContent(ctx context.Context, env *Env, contentID string) (*backend.ContentItem, error) {
	items, err := env.Client.AccessibleContent(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if string(items[i].ID) == contentID {
			if items[i].Key() == "" {
				return nil, fmt.Errorf("%w: no key for content %s", kerrors.ErrNotFound, contentID)
			}
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: content %s is not accessible; request access first", kerrors.ErrNotFound, contentID)
}

func defaultViewPath(item *backend.ContentItem) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, strings.TrimSpace(item.Title))
	// No hidden files: a title like ".bashrc" becomes "bashrc".
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "content-" + string(item.ID)
	}
	return name
}

// viewPathCandidates lists the names tried, in order, when View picks the
// output path itself.
func viewPathCandidates(item *backend.ContentItem) []string {
	name := defaultViewPath(item)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidates := []string{name}
	for i := 1; i <= 9; i++ {
		candidates = append(candidates, fmt.Sprintf("%s (%d)%s", base, i, ext))
	}
	return candidates
}

// writeNewFile writes data to the first candidate that does not exist yet.
func writeNewFile(candidates []string, data []byte) (string, error) {
	for _, path := range candidates {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %s; choose an output path with -o", os.ErrExist, candidates[0])
}
