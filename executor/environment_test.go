package executor

import (
	"reflect"
	"testing"
)

func TestEnvironmentArgsAndEnv(t *testing.T) {
	env := newEnvironment(CallData{
		StartFunc: "tally",
		Args:      []string{"a", "b"},
		Envs:      map[string]string{"Z": "1", "A": "2"},
	}, newCapture(0))

	if env.Entry() != "tally" {
		t.Errorf("entry = %q", env.Entry())
	}
	if got, want := env.Args(), []string{"tally", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
	if got, want := env.Environ(), []string{"A=2", "Z=1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("environ = %q, want %q", got, want)
	}
	if v, ok := env.Env("Z"); !ok || v != "1" {
		t.Errorf("Env(Z) = %q, %v", v, ok)
	}
	if _, ok := env.Env("missing"); ok {
		t.Error("Env(missing) found")
	}

	args := env.Args()
	args[0] = "changed"
	if env.Args()[0] != "tally" {
		t.Error("Args returned internal slice")
	}
}

func TestEnvironmentDefaultEntry(t *testing.T) {
	env := newEnvironment(CallData{}, newCapture(0))
	if env.Entry() != DefaultEntry {
		t.Errorf("entry = %q, want %q", env.Entry(), DefaultEntry)
	}
	if got := env.Args(); len(got) != 1 || got[0] != DefaultEntry {
		t.Errorf("args = %q", got)
	}
}

func TestEnvironmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		call    CallData
		wantErr bool
	}{
		{"ok", CallData{Args: []string{"x"}, Envs: map[string]string{"K": "v"}}, false},
		{"empty value", CallData{Envs: map[string]string{"K": ""}}, false},
		{"nul in arg", CallData{Args: []string{"a\x00b"}}, true},
		{"empty key", CallData{Envs: map[string]string{"": "v"}}, true},
		{"equals in key", CallData{Envs: map[string]string{"A=B": "v"}}, true},
		{"nul in value", CallData{Envs: map[string]string{"K": "v\x00"}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := newEnvironment(tc.call, newCapture(0)).validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
