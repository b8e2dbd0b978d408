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

package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/hrmless/adapter/internal/integration/hrmless"
)

func names(completions []string) []string {
	out := make([]string, 0, len(completions))
	for _, c := range completions {
		name, _, _ := strings.Cut(c, "\t")
		out = append(out, name)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func TestCompleteActionKeys(t *testing.T) {
	completions, directive := CompleteActionKeys(nil, nil, "")

	if len(completions) != len(hrmless.AllActions()) {
		t.Errorf("expected %d action keys, got %d", len(hrmless.AllActions()), len(completions))
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
	}
	if !contains(completions, hrmless.KeyPositionChoices+"\tList Positions") {
		t.Errorf("expected %q with its label, got %v", hrmless.KeyPositionChoices, completions)
	}
}

func TestCompleteActionKeys_Prefix(t *testing.T) {
	completions, _ := CompleteActionKeys(nil, nil, "orgSettings")

	got := names(completions)
	if len(got) != 2 || !contains(got, hrmless.KeySettingsRead) || !contains(got, hrmless.KeySettingsUpdate) {
		t.Errorf("expected the two settings actions, got %v", got)
	}
}

func TestCompleteActionKeys_OnlyFirstArgument(t *testing.T) {
	completions, _ := CompleteActionKeys(nil, []string{hrmless.KeySettingsRead}, "")

	if len(completions) != 0 {
		t.Errorf("expected no completions after the key, got %v", completions)
	}
}

func TestCompleteInputKeys(t *testing.T) {
	cmd := &cobra.Command{Use: "perform"}
	cmd.Flags().StringArray("input", nil, "")
	if err := cmd.Flags().Set("input", "position_id=pos-1"); err != nil {
		t.Fatal(err)
	}

	completions, directive := CompleteInputKeys(cmd, []string{hrmless.KeyCandidateCreate}, "")

	got := names(completions)
	for _, want := range []string{"name=", "email=", "phone=", "language="} {
		if !contains(got, want) {
			t.Errorf("expected %q in %v", want, got)
		}
	}
	if contains(got, "position_id=") {
		t.Errorf("expected given key position_id to be left out, got %v", got)
	}
	if directive&cobra.ShellCompDirectiveNoSpace == 0 {
		t.Error("expected ShellCompDirectiveNoSpace")
	}
}

func TestCompleteInputKeys_SkipsGroups(t *testing.T) {
	completions, _ := CompleteInputKeys(nil, []string{hrmless.KeyPositionUpdate}, "")

	got := names(completions)
	if contains(got, "questionaire=") {
		t.Errorf("expected group field to be left out, got %v", got)
	}
	if !contains(got, "min_score=") {
		t.Errorf("expected min_score= in %v", got)
	}
}

func TestCompleteInputKeys_UnknownAction(t *testing.T) {
	completions, _ := CompleteInputKeys(nil, []string{"nope"}, "")
	if len(completions) != 0 {
		t.Errorf("expected no completions, got %v", completions)
	}

	completions, _ = CompleteInputKeys(nil, nil, "")
	if len(completions) != 0 {
		t.Errorf("expected no completions without an action, got %v", completions)
	}
}

func TestFixedCompletions(t *testing.T) {
	tests := []struct {
		name string
		fn   CompletionFunc
		want []string
	}{
		{"kinds", CompleteKinds, []string{"search", "create", "trigger"}},
		{"output", CompleteOutputFormats, []string{"text", "json", "yaml"}},
		{"trace", CompleteTraceExporters, []string{"none", "console", "otlp-http"}},
		{"values", Values("output", "input", "both"), []string{"both", "input", "output"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completions, directive := tt.fn(nil, nil, "")
			got := names(completions)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if directive != cobra.ShellCompDirectiveNoFileComp {
				t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
			}
		})
	}
}

func TestSafeCompletionWrapper(t *testing.T) {
	completions, directive := SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		panic("boom")
	})
	if len(completions) != 0 || directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected empty result after panic, got %v %v", completions, directive)
	}
}

func TestCompletionCommand(t *testing.T) {
	root := &cobra.Command{Use: "hrmless"}
	root.AddCommand(NewCommand())

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetArgs([]string{"completion", shell})
		if err := root.Execute(); err != nil {
			t.Fatalf("completion %s failed: %v", shell, err)
		}
		if buf.Len() == 0 {
			t.Errorf("expected %s completion script", shell)
		}
	}
}
