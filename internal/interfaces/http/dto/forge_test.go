package dto

import (
	"testing"

	"worldforge/internal/application/forge"
	"worldforge/internal/domain/world"
	"worldforge/internal/domain/world/worldtest"
)

func TestLocationImagePath(t *testing.T) {
	cases := map[string]string{
		"dock_01":   "/v1/forge/locations/dock_01/image",
		"a b?c":     "/v1/forge/locations/a%20b%3Fc/image",
		"Neon-Dock": "/v1/forge/locations/Neon-Dock/image",
	}
	for id, want := range cases {
		if got := LocationImagePath("/v1/forge/", id); got != want {
			t.Fatalf("LocationImagePath(%q)=%q want %q", id, got, want)
		}
	}
}

func TestNewStateResponse_MapsImagesToURLs(t *testing.T) {
	w := worldtest.SampleWorld(2)
	img := worldtest.SampleImage("dock")
	snap := forge.Snapshot{
		View: forge.ViewResult,
		World: &forge.WorldView{
			Title: w.Title,
			Locations: []forge.LocationView{
				{Location: w.Locations[0], GeneratedImage: &img},
				{Location: w.Locations[1], IsGeneratingImage: true},
			},
		},
		Expanded: &forge.ExpandedImage{Image: img, Label: "Place 1"},
	}

	resp := NewStateResponse(snap, "/v1/forge")
	if resp.World == nil || len(resp.World.Locations) != 2 {
		t.Fatalf("world=%+v", resp.World)
	}
	first, second := resp.World.Locations[0], resp.World.Locations[1]
	if first.ImageURL != "/v1/forge/locations/dock_01/image" || first.ImageMIMEType != world.DefaultImageMIMEType {
		t.Fatalf("first=%+v", first)
	}
	if second.ImageURL != "" || !second.IsGeneratingImage {
		t.Fatalf("second=%+v", second)
	}
	if resp.ExpandedImage == nil || resp.ExpandedImage.Label != "Place 1" {
		t.Fatalf("expanded=%+v", resp.ExpandedImage)
	}
}
