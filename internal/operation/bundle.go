package operation

// AuthData is the session material a host attaches to every invocation.
type AuthData struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
	OrgID        string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
}

// HasToken reports whether an access token is present.
func (a AuthData) HasToken() bool {
	return a.AccessToken != ""
}

// Bundle is the per-invocation input envelope. Actions and mappers only
// read it. A key missing from InputData is undefined and is never sent.
type Bundle struct {
	AuthData  AuthData       `json:"authData"`
	InputData map[string]any `json:"inputData"`
}

// NewBundle returns a bundle with a non-nil InputData.
func NewBundle(auth AuthData, input map[string]any) Bundle {
	if input == nil {
		input = map[string]any{}
	}
	return Bundle{AuthData: auth, InputData: input}
}

// Value returns the input value stored at key.
func (b Bundle) Value(key string) (any, bool) {
	v, ok := b.InputData[key]
	return v, ok
}
