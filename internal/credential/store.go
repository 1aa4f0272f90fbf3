package credential

import (
	"context"
	"encoding/json"
	"fmt"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

// Store persists the single authorization record.
type Store interface {
	// Load returns apperr.ErrNotFound when no record exists yet.
	Load(ctx context.Context) (model.Credential, error)
	Save(ctx context.Context, cred model.Credential) error
}

// record is the on-disk shape. auth_code is read for files written by older tooling.
type record struct {
	AuthorizationCode string `json:"authorization_code"`
	AccessToken       string `json:"access_token"`
	LegacyAuthCode    string `json:"auth_code,omitempty"`
}

func encode(cred model.Credential) ([]byte, error) {
	if !cred.Valid() {
		return nil, fmt.Errorf("refusing to persist partial credential: %w", apperr.ErrStorage)
	}
	data, err := json.MarshalIndent(record{
		AuthorizationCode: cred.AuthorizationCode,
		AccessToken:       cred.AccessToken,
	}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal credential: %w: %w", apperr.ErrStorage, err)
	}
	return data, nil
}

func decode(data []byte) (model.Credential, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Credential{}, fmt.Errorf("decode credential: %w: %w", apperr.ErrStorage, err)
	}
	cred := model.Credential{AuthorizationCode: rec.AuthorizationCode, AccessToken: rec.AccessToken}
	if cred.AuthorizationCode == "" {
		cred.AuthorizationCode = rec.LegacyAuthCode
	}
	if !cred.Valid() {
		return model.Credential{}, fmt.Errorf("credential record is incomplete: %w", apperr.ErrStorage)
	}
	return cred, nil
}
