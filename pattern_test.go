package flume

import (
	"testing"
)

func TestNewPattern(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		shouldError bool
	}{
		{
			name:        "simple static path",
			pattern:     "/users",
			shouldError: false,
		},
		{
			name:        "root path",
			pattern:     "/",
			shouldError: false,
		},
		{
			name:        "path with parameter",
			pattern:     "/users/{id}",
			shouldError: false,
		},
		{
			name:        "path with typed parameters",
			pattern:     "/users/{id:int}/posts/{slug:string}",
			shouldError: false,
		},
		{
			name:        "path with remainder capture",
			pattern:     "/files/{name:path}",
			shouldError: false,
		},
		{
			name:        "no leading slash",
			pattern:     "users",
			shouldError: true,
		},
		{
			name:        "empty segment",
			pattern:     "/users//posts",
			shouldError: true,
		},
		{
			name:        "unmatched opening brace",
			pattern:     "/users/{id",
			shouldError: true,
		},
		{
			name:        "unmatched closing brace",
			pattern:     "/users/id}",
			shouldError: true,
		},
		{
			name:        "brace inside segment",
			pattern:     "/users/{id}x",
			shouldError: true,
		},
		{
			name:        "unknown type tag",
			pattern:     "/users/{id:uuid}",
			shouldError: true,
		},
		{
			name:        "duplicate parameter name",
			pattern:     "/users/{id}/posts/{id}",
			shouldError: true,
		},
		{
			name:        "remainder capture not final",
			pattern:     "/files/{name:path}/meta",
			shouldError: true,
		},
		{
			name:        "empty parameter name",
			pattern:     "/users/{}",
			shouldError: true,
		},
		{
			name:        "parameter name starting with digit",
			pattern:     "/users/{1id}",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, err := NewPattern(tt.pattern)
			if tt.shouldError {
				if err == nil {
					t.Errorf("expected error for pattern %q, got nil", tt.pattern)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for pattern %q: %v", tt.pattern, err)
			}
			if pattern.String() != tt.pattern {
				t.Errorf("expected pattern.String() to be %q, got %q", tt.pattern, pattern.String())
			}
		})
	}
}

func TestNewPatternErrorType(t *testing.T) {
	_, err := NewPattern("/users/{id:uuid}")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	patternErr, ok := err.(*PatternError)
	if !ok {
		t.Fatalf("expected *PatternError, got %T", err)
	}
	if patternErr.Pattern != "/users/{id:uuid}" {
		t.Errorf("expected error to carry the pattern, got %q", patternErr.Pattern)
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		path        string
		shouldMatch bool
		params      map[string]any
	}{
		{
			name:        "static match",
			pattern:     "/users/list",
			path:        "/users/list",
			shouldMatch: true,
			params:      map[string]any{},
		},
		{
			name:        "static match is case-sensitive",
			pattern:     "/users/list",
			path:        "/Users/list",
			shouldMatch: false,
		},
		{
			name:        "root match",
			pattern:     "/",
			path:        "/",
			shouldMatch: true,
			params:      map[string]any{},
		},
		{
			name:        "string parameter",
			pattern:     "/users/{id}",
			path:        "/users/abc",
			shouldMatch: true,
			params:      map[string]any{"id": "abc"},
		},
		{
			name:        "string parameter consumes exactly one segment",
			pattern:     "/users/{id}",
			path:        "/users/abc/posts",
			shouldMatch: false,
		},
		{
			name:        "int parameter",
			pattern:     "/users/{id:int}",
			path:        "/users/42",
			shouldMatch: true,
			params:      map[string]any{"id": int64(42)},
		},
		{
			name:        "negative int parameter",
			pattern:     "/offsets/{n:int}",
			path:        "/offsets/-7",
			shouldMatch: true,
			params:      map[string]any{"n": int64(-7)},
		},
		{
			name:        "int parameter rejects non-integer",
			pattern:     "/users/{id:int}",
			path:        "/users/abc",
			shouldMatch: false,
		},
		{
			name:        "int parameter rejects overflow",
			pattern:     "/users/{id:int}",
			path:        "/users/99999999999999999999999999",
			shouldMatch: false,
		},
		{
			name:        "remainder capture",
			pattern:     "/files/{name:path}",
			path:        "/files/images/logo.png",
			shouldMatch: true,
			params:      map[string]any{"name": "images/logo.png"},
		},
		{
			name:        "remainder capture requires at least one segment",
			pattern:     "/files/{name:path}",
			path:        "/files",
			shouldMatch: false,
		},
		{
			name:        "mixed literals and parameters",
			pattern:     "/users/{userID:int}/posts/{slug}",
			path:        "/users/7/posts/intro",
			shouldMatch: true,
			params:      map[string]any{"userID": int64(7), "slug": "intro"},
		},
		{
			name:        "trailing slash tolerated",
			pattern:     "/users/{id}",
			path:        "/users/abc/",
			shouldMatch: true,
			params:      map[string]any{"id": "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, err := NewPattern(tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error for pattern %q: %v", tt.pattern, err)
			}

			params, matched := pattern.Match(tt.path)
			if matched != tt.shouldMatch {
				t.Fatalf("expected match=%v for path %q against %q, got %v", tt.shouldMatch, tt.path, tt.pattern, matched)
			}
			if !tt.shouldMatch {
				return
			}

			if len(params) != len(tt.params) {
				t.Errorf("expected %d params, got %d: %v", len(tt.params), len(params), params)
			}
			for key, want := range tt.params {
				if got := params[key]; got != want {
					t.Errorf("expected param %q to be %v (%T), got %v (%T)", key, want, want, got, got)
				}
			}
		})
	}
}

func TestParamsAccessors(t *testing.T) {
	pattern := MustPattern("/users/{id:int}/posts/{slug}")

	params, ok := pattern.Match("/users/42/posts/intro")
	if !ok {
		t.Fatal("expected match")
	}

	if got := params.Get("slug"); got != "intro" {
		t.Errorf("expected slug to be %q, got %q", "intro", got)
	}
	if got := params.Get("ID"); got != "42" {
		t.Errorf("expected case-insensitive int param as string %q, got %q", "42", got)
	}
	if id, ok := params.Int("id"); !ok || id != 42 {
		t.Errorf("expected Int to return 42, got %d (ok=%v)", id, ok)
	}
	if _, ok := params.Int("slug"); ok {
		t.Error("expected Int on a string param to report not ok")
	}
	if got := params.Get("missing"); got != "" {
		t.Errorf("expected empty string for missing param, got %q", got)
	}
}
