// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrmless/adapter/internal/operation"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

// Session value keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyOrgID        = "org_id"
)

var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyOrgID}

// Store reads and writes the session through a backend chain.
type Store struct {
	backends []Backend
	logger   *slog.Logger
}

// NewStore returns a store consulting backends in order. Unavailable
// backends are skipped.
func NewStore(backends ...Backend) *Store {
	return &Store{backends: backends, logger: slog.Default()}
}

// WithLogger sets the logger used for skipped backends.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Load assembles the session. Each value comes from the first backend that
// has it. A session without any value is not an error.
func (s *Store) Load(ctx context.Context) (operation.AuthData, error) {
	values := make(map[string]string, len(sessionKeys))
	for _, key := range sessionKeys {
		v, err := s.get(ctx, key)
		if err != nil && !errors.Is(err, ErrSecretNotFound) {
			return operation.AuthData{}, err
		}
		values[key] = v
	}
	return operation.AuthData{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		OrgID:        values[KeyOrgID],
	}, nil
}

// Save writes every non-empty session value to the first writable backend
// and clears values the session no longer carries.
func (s *Store) Save(ctx context.Context, auth operation.AuthData) error {
	backend, err := s.writable()
	if err != nil {
		return err
	}

	values := map[string]string{
		KeyAccessToken:  auth.AccessToken,
		KeyRefreshToken: auth.RefreshToken,
		KeyOrgID:        auth.OrgID,
	}
	for _, key := range sessionKeys {
		if values[key] == "" {
			if err := backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrSecretNotFound) {
				return pkgerrors.Wrapf(err, "clear %s", key)
			}
			continue
		}
		if err := backend.Set(ctx, key, values[key]); err != nil {
			return pkgerrors.Wrapf(err, "store %s in %s", key, backend.Name())
		}
	}
	return nil
}

// Delete removes the stored session from every writable backend.
func (s *Store) Delete(ctx context.Context) error {
	var errs []error
	for _, b := range s.backends {
		if !b.Available() {
			continue
		}
		for _, key := range sessionKeys {
			err := b.Delete(ctx, key)
			if err == nil || errors.Is(err, ErrSecretNotFound) || errors.Is(err, ErrReadOnlyBackend) {
				continue
			}
			errs = append(errs, pkgerrors.Wrap(err, b.Name()))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	for _, b := range s.backends {
		if !b.Available() {
			s.logger.Debug("skipping unavailable secret backend", slog.String("backend", b.Name()))
			continue
		}
		v, err := b.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", pkgerrors.Wrap(err, b.Name())
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
}

func (s *Store) writable() (Backend, error) {
	for _, b := range s.backends {
		if !b.Available() {
			continue
		}
		if ro, ok := b.(interface{ ReadOnly() bool }); ok && ro.ReadOnly() {
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: no writable secret backend", ErrBackendUnavailable)
}
