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

/*
Package secrets stores the HRMLESS session outside the config file.

A Store reads each session value from an ordered chain of backends and
writes to the first writable one:

	env      - HRMLESS_ACCESS_TOKEN, HRMLESS_REFRESH_TOKEN, HRMLESS_ORG_ID (read-only)
	keychain - OS keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)

# Usage

	store := secrets.NewStore(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	auth, err := store.Load(ctx)
	...
	err = store.Save(ctx, session)
*/
package secrets
