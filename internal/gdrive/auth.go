package gdrive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/sankethshetty99/discord-archiver/internal/config"
)

// NewService builds an authenticated Drive client from an OAuth client
// secret file plus a stored user token. The refresh token inside the stored
// token keeps the client alive across access token expiry.
func NewService(ctx context.Context, cfg config.DriveConfig) (*drive.Service, error) {
	secret, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read oauth client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client secret: %w", err)
	}

	tok, err := loadToken(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return svc, nil
}

// loadToken reads the stored OAuth token. A base64-encoded token in the
// configuration takes precedence over the token file so containerized
// deployments can run without a writable filesystem.
func loadToken(cfg config.DriveConfig) (*oauth2.Token, error) {
	if cfg.TokenBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.TokenBase64)
		if err != nil {
			return nil, fmt.Errorf("decode inline drive token: %w", err)
		}
		tok := &oauth2.Token{}
		if err := json.Unmarshal(raw, tok); err != nil {
			return nil, fmt.Errorf("parse inline drive token: %w", err)
		}
		return tok, nil
	}

	f, err := os.Open(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("open drive token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("parse drive token: %w", err)
	}
	return tok, nil
}
