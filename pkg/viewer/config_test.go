package viewer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		search   string
		selector Selector
		position mgl64.Vec3
		near     float64
		far      float64
	}{
		{"", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"?", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"?unknown", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"?base", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"?menger_sponge", MengerSponge, mgl64.Vec3{0, 0, 5}, 0.1, 100},
		{"?stanford_bunny", StanfordBunny, mgl64.Vec3{0, -250, 0}, 0.1, 2500},
		{"?eiffel_tower", EiffelTower, mgl64.Vec3{0, 0, -100}, 0.1, 1000},
		{"?cabinet_3d_geomery_s2", Cabinet3DGeometryS2, mgl64.Vec3{0, 0, -2500}, 0.1, 5000},
		// Only exact matches select a model.
		{"?Stanford_Bunny", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"?stanford_bunny&x=1", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
		{"stanford_bunny", Base, mgl64.Vec3{0, 0, 10}, 0.1, 100},
	}

	for _, tc := range tests {
		t.Run(tc.search, func(t *testing.T) {
			cfg := Resolve(tc.search)
			if cfg.Selector != tc.selector {
				t.Errorf("Selector = %q, want %q", cfg.Selector, tc.selector)
			}
			wantFile := string(tc.selector) + ".stl"
			if cfg.Filename != wantFile {
				t.Errorf("Filename = %q, want %q", cfg.Filename, wantFile)
			}
			if cfg.AssetPath != "models/stl/"+wantFile {
				t.Errorf("AssetPath = %q, want %q", cfg.AssetPath, "models/stl/"+wantFile)
			}
			if cfg.Camera.Position != tc.position {
				t.Errorf("Position = %v, want %v", cfg.Camera.Position, tc.position)
			}
			if cfg.Camera.Near != tc.near || cfg.Camera.Far != tc.far {
				t.Errorf("clipping = (%v, %v), want (%v, %v)", cfg.Camera.Near, cfg.Camera.Far, tc.near, tc.far)
			}
		})
	}
}

func TestSearchFromLocation(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"", ""},
		{"?eiffel_tower", "?eiffel_tower"},
		{"eiffel_tower", "?eiffel_tower"},
		{"http://localhost:8080/?eiffel_tower", "?eiffel_tower"},
		{"https://example.com/viewer?menger_sponge", "?menger_sponge"},
		{"https://example.com/viewer", ""},
		{"http://[::1", ""},
		{"index.html?menger_sponge", "?menger_sponge"},
		{"viewer/index.html?stanford_bunny#top", "?stanford_bunny"},
		{"?eiffel_tower#top", "?eiffel_tower"},
		{"a?b?c", "?b?c"},
	}

	for _, tc := range tests {
		t.Run(tc.location, func(t *testing.T) {
			if got := SearchFromLocation(tc.location); got != tc.want {
				t.Errorf("SearchFromLocation(%q) = %q, want %q", tc.location, got, tc.want)
			}
		})
	}
}

func TestSelectorsAreDistinct(t *testing.T) {
	seen := map[Selector]bool{}
	for _, s := range Selectors {
		if seen[s] {
			t.Errorf("duplicate selector %q", s)
		}
		seen[s] = true
		if got := ResolveSelector("?" + string(s)); got != s {
			t.Errorf("ResolveSelector(?%s) = %q", s, got)
		}
	}
}
