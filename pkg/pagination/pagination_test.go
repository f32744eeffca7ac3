package pagination_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/rounds/pkg/pagination"
	"github.com/JaimeStill/rounds/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(""); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PAGINATION_DEFAULT_PAGE_SIZE", "50")
	t.Setenv("TEST_PAGINATION_MAX_PAGE_SIZE", "200")

	cfg := pagination.Config{}
	if err := cfg.Finalize("TEST_PAGINATION_"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 200 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfigFinalizeValidation(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := cfg.Finalize(""); err == nil {
		t.Error("default exceeding max should fail")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := defaultConfig()
	cfg.Merge(&pagination.Config{MaxPageSize: 40})
	if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 40 {
		t.Errorf("merged = %+v", cfg)
	}
}

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		size     int
		search   string
		sort     string
		wantPage int
		wantSize int
	}{
		{"defaults", 0, 0, "", "", 1, 20},
		{"clamped size", 3, 500, "roe", "-Turn", 3, 100},
		{"explicit", 2, 10, "", "PatientName", 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.NewPageRequest(tt.page, tt.size, tt.search, tt.sort, defaultConfig())
			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("page/size = %d/%d, want %d/%d", req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}
			if (tt.search == "") != (req.Search == nil) {
				t.Errorf("Search = %v for input %q", req.Search, tt.search)
			}
			if diff := cmp.Diff(query.ParseSortFields(tt.sort), req.Sort); diff != "" {
				t.Errorf("Sort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPageResult(t *testing.T) {
	r := pagination.NewPageResult[string](nil, 41, 2, 20)
	if r.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", r.TotalPages)
	}
	if r.Data == nil {
		t.Error("Data should be an empty slice")
	}

	req := pagination.PageRequest{Page: 3, PageSize: 20}
	if req.Offset() != 40 {
		t.Errorf("Offset = %d, want 40", req.Offset())
	}
}
