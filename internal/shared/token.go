package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// LoadToken reads a JSON-encoded [oauth2.Token] from path.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no token at %s", ErrNotAuthenticated, path)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: invalid token file %s: %v", ErrNotAuthenticated, path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: empty token at %s", ErrNotAuthenticated, path)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace token: %w", err)
	}
	return nil
}

// persistingTokenSource saves refreshed tokens back to disk.
type persistingTokenSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

// PersistingTokenSource wraps src so that every newly minted access token is written to path.
func PersistingTokenSource(src oauth2.TokenSource, path string, initial *oauth2.Token) oauth2.TokenSource {
	ts := &persistingTokenSource{src: src, path: path}
	if initial != nil {
		ts.last = initial.AccessToken
	}
	return oauth2.ReuseTokenSource(initial, ts)
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
