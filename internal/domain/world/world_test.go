package world_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"worldforge/internal/domain/world"
	"worldforge/internal/domain/world/worldtest"
)

func TestValidate_AcceptsCompleteWorld(t *testing.T) {
	if err := world.Validate(worldtest.SampleWorld(6), world.ValidateOptions{}); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CollectsIssues(t *testing.T) {
	w := worldtest.SampleWorld(6)
	w.TitleKo = "   "
	w.Locations[2].ID = w.Locations[1].ID
	w.Locations[4].ImagePromptLong = ""
	w.Pillars = nil

	err := world.Validate(w, world.ValidateOptions{})
	var verr world.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	joined := strings.Join(verr.Issues, "|")
	for _, want := range []string{
		"title_ko is required",
		"pillars must not be empty",
		"locations[2].id duplicated",
		"locations[4].image_prompt_long is required",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("issues %q missing %q", joined, want)
		}
	}
}

func TestValidate_RequiresExactLocationCount(t *testing.T) {
	if err := world.Validate(worldtest.SampleWorld(5), world.ValidateOptions{}); err == nil {
		t.Fatalf("expected error for 5 locations")
	}
	if err := world.Validate(worldtest.SampleWorld(4), world.ValidateOptions{LocationCount: 4}); err != nil {
		t.Fatalf("expected 4 locations to pass with LocationCount=4: %v", err)
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	w := worldtest.SampleWorld(6)
	images := map[string]world.Image{
		"dock_01":     worldtest.SampleImage("a"),
		"district_03": {MIMEType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
	}

	data, err := world.MarshalDocument(world.NewDocument(w, images))
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}
	doc, err := world.ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	gotWorld, gotImages := doc.Split()

	if !reflect.DeepEqual(w, gotWorld) {
		t.Fatalf("world mismatch after round trip:\nwant %+v\ngot  %+v", w, gotWorld)
	}
	if !reflect.DeepEqual(images, gotImages) {
		t.Fatalf("images mismatch after round trip:\nwant %+v\ngot  %+v", images, gotImages)
	}
}

func TestDocument_OmitsTransientFields(t *testing.T) {
	data, err := world.MarshalDocument(world.NewDocument(worldtest.SampleWorld(6), nil))
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}
	if strings.Contains(string(data), "isGeneratingImage") || strings.Contains(string(data), "generatedImage") {
		t.Fatalf("export should not contain transient or empty image fields: %s", data)
	}
}

func TestImage_JSONIsDataURI(t *testing.T) {
	img := world.Image{MIMEType: "image/jpeg", Data: []byte("hi")}
	b, err := json.Marshal(img)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"data:image/jpeg;base64,aGk="` {
		t.Fatalf("json=%s", b)
	}

	var back world.Image
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(img, back) {
		t.Fatalf("got %+v want %+v", back, img)
	}
}

func TestParseDataURI_Rejects(t *testing.T) {
	for _, in := range []string{
		"https://example.com/a.jpg",
		"data:image/jpeg,plain",
		"data:image/jpeg;base64",
		"data:image/jpeg;base64,",
	} {
		if _, err := world.ParseDataURI(in); err == nil {
			t.Fatalf("ParseDataURI(%q) expected error", in)
		}
	}
}

func TestExportFilename(t *testing.T) {
	cases := map[string]string{
		"Drowned Neon Covenant": "drowned_neon_covenant.json",
		"  Two\t Spaces ":       "two_spaces.json",
		"":                      "world.json",
	}
	for in, want := range cases {
		if got := world.ExportFilename(in); got != want {
			t.Fatalf("ExportFilename(%q)=%q want %q", in, got, want)
		}
	}
}

func TestLocation_MoodTags(t *testing.T) {
	loc := world.Location{Mood: "foggy / neon /  / ancient tech"}
	want := []string{"foggy", "neon", "ancient tech"}
	if got := loc.MoodTags(); !reflect.DeepEqual(got, want) {
		t.Fatalf("MoodTags()=%v want %v", got, want)
	}
}

func TestWorld_LocationLookup(t *testing.T) {
	w := worldtest.SampleWorld(6)
	if _, ok := w.Location("dock_01"); !ok {
		t.Fatalf("expected dock_01")
	}
	if _, ok := w.Location("missing"); ok {
		t.Fatalf("did not expect missing location")
	}
	clone := w.Clone()
	clone.Locations[0].Name = "changed"
	if w.Locations[0].Name == "changed" {
		t.Fatalf("Clone shares location storage")
	}
}

func TestImageFilename(t *testing.T) {
	if got := world.ImageFilename(" Sunken  Dock ", worldtest.SampleImage("x")); got != "worldforge-ai-sunken-dock.jpg" {
		t.Fatalf("ImageFilename=%q", got)
	}
	if got := world.ImageFilename("", world.Image{MIMEType: "image/png"}); got != "worldforge-ai-location.png" {
		t.Fatalf("ImageFilename=%q", got)
	}
}

func TestValidate_RejectsUnsafeLocationIDs(t *testing.T) {
	for _, id := range []string{"dock/01", "dock 01", "dock?01", "부두_01"} {
		w := worldtest.SampleWorld(6)
		w.Locations[0].ID = id
		err := world.Validate(w, world.ValidateOptions{})
		if err == nil || !strings.Contains(err.Error(), "locations[0].id must match") {
			t.Fatalf("id %q: err=%v", id, err)
		}
	}

	w := worldtest.SampleWorld(6)
	w.Locations[0].ID = "Neon-Dock_01"
	if err := world.Validate(w, world.ValidateOptions{}); err != nil {
		t.Fatalf("valid id rejected: %v", err)
	}
}
