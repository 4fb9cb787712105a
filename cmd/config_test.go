package cmd

import (
	"testing"

	cfgpkg "github.com/clinistats/metaprop/internal/config"
)

func TestConfigValue(t *testing.T) {
	c := cfgpkg.Default()
	c.OutputDir = "results"
	c.GoshSeed = 42
	c.MarkdownTables = true

	cases := []struct {
		key  string
		want string
	}{
		{"output_dir", "results"},
		{"ci_level", "0.950"},
		{"transform", "ft"},
		{"plot_width", "1000"},
		{"plot_height", "600"},
		{"gosh_subsets", "10000"},
		{"gosh_seed", "42"},
		{"kmeans_k", "2"},
		{"dbscan_eps", "0.050"},
		{"dbscan_min_pts", "8"},
		{"markdown_tables", "true"},
	}
	for _, tc := range cases {
		got, err := configValue(c, tc.key)
		if err != nil {
			t.Fatalf("configValue(%s): %v", tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("configValue(%s) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestConfigValueUnknownKey(t *testing.T) {
	if _, err := configValue(cfgpkg.Default(), "plot_depth"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestConfigValueCoversEveryKey(t *testing.T) {
	c := cfgpkg.Default()
	for _, k := range configKeys {
		if _, err := configValue(c, k); err != nil {
			t.Fatalf("configValue(%s): %v", k, err)
		}
	}
}
