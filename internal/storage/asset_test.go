package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestAsset_Validate(t *testing.T) {
	tests := map[string]struct {
		asset   Asset[*presetSpec]
		expErrs []string
	}{
		"valid asset": {
			asset: Asset[*presetSpec]{Version: 1, Identifier: "test-id-123", Spec: &presetSpec{}},
		},
		"version not set": {
			asset:   Asset[*presetSpec]{Identifier: "test-id", Spec: &presetSpec{}},
			expErrs: []string{"version must be set"},
		},
		"empty identifier": {
			asset:   Asset[*presetSpec]{Version: 1, Spec: &presetSpec{}},
			expErrs: []string{"id must be set"},
		},
		"identifier with spaces": {
			asset:   Asset[*presetSpec]{Version: 1, Identifier: "test id", Spec: &presetSpec{}},
			expErrs: []string{"id must be alphanumeric"},
		},
		"identifier with underscore": {
			asset:   Asset[*presetSpec]{Version: 1, Identifier: "test_id", Spec: &presetSpec{}},
			expErrs: []string{"id must be alphanumeric"},
		},
		"missing spec": {
			asset:   Asset[*presetSpec]{Version: 1, Identifier: "test-id"},
			expErrs: []string{"spec must be set"},
		},
		"invalid spec": {
			asset:   Asset[*presetSpec]{Version: 1, Identifier: "test-id", Spec: &presetSpec{Limit: -1}},
			expErrs: []string{"limit must not be negative"},
		},
		"multiple errors": {
			asset: Asset[*presetSpec]{Spec: &presetSpec{Limit: -1}},
			expErrs: []string{
				"version must be set",
				"id must be set",
				"limit must not be negative",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()

			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("expected errors %v, got nil", tt.expErrs)
				return
			}

			errStr := err.Error()
			for _, e := range tt.expErrs {
				if !strings.Contains(errStr, e) {
					t.Errorf("error %q does not contain %q", errStr, e)
				}
			}
		})
	}
}

func TestSmartIdentifier(t *testing.T) {
	store, err := NewFileStore[*presetSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	store.records = map[string]*presetSpec{"lounge": {Name: "Lounge"}}

	tests := map[string]struct {
		raw        string
		expSet     bool
		expValid   string
		expResolve string
		expName    string
	}{
		"resolves": {
			raw:     `"lounge"`,
			expSet:  true,
			expName: "Lounge",
		},
		"unknown id": {
			raw:        `"attic"`,
			expSet:     true,
			expResolve: `presetSpec "attic" not found`,
		},
		"empty": {
			raw:      `""`,
			expValid: "presetSpec identifier is required",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var id SmartIdentifier[*presetSpec]
			if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "is set", id.IsSet(), tt.expSet)

			if tt.expValid != "" {
				testutil.AssertErrorContains(t, id.Validate(), tt.expValid)
				return
			}

			err := id.Resolve(store)
			if tt.expResolve != "" {
				testutil.AssertErrorContains(t, err, tt.expResolve)
				return
			}
			testutil.AssertEqual(t, "resolve error", err == nil, true)
			testutil.AssertEqual(t, "name", id.Id().Name, tt.expName)

			b, err := json.Marshal(id)
			testutil.AssertEqual(t, "marshal error", err == nil, true)
			testutil.AssertEqual(t, "marshalled", string(b), tt.raw)
		})
	}
}
