package catalog

import "testing"

func TestDeriveMediaID(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		wantID string
		wantOK bool
	}{
		{
			name:   "plain mp4",
			uri:    "https://cdn7.example.net/movies/tt0108052.mp4",
			wantID: "tt0108052",
			wantOK: true,
		},
		{
			name:   "signed token stripped",
			uri:    "https://cdn7.example.net/movies/tt0108052.mp4?token=abc123&expires=99",
			wantID: "tt0108052",
			wantOK: true,
		},
		{
			name:   "hls playlist",
			uri:    "https://stream.example.net/v2/a-lista-de-schindler.m3u8",
			wantID: "a-lista-de-schindler",
			wantOK: true,
		},
		{
			name:   "uppercase extension",
			uri:    "https://cdn.example.net/files/Interestelar.MP4",
			wantID: "Interestelar",
			wantOK: true,
		},
		{
			name: "no media extension",
			uri:  "https://catalog.example.net/movie/info/123",
		},
		{
			name: "extension only",
			uri:  "https://cdn.example.net/movies/.mp4",
		},
		{
			name: "empty",
			uri:  "",
		},
		{
			name: "unparseable",
			uri:  "http://bad host/x.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := DeriveMediaID(tt.uri)
			if ok != tt.wantOK {
				t.Fatalf("DeriveMediaID(%q) ok = %v, want %v", tt.uri, ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("DeriveMediaID(%q) = %q, want %q", tt.uri, id, tt.wantID)
			}
		})
	}
}

func TestNewLocatorKeepsFullURI(t *testing.T) {
	uri := "https://cdn7.example.net/movies/tt0108052.mp4?token=abc123"
	locator, ok := NewLocator(uri)
	if !ok {
		t.Fatal("expected locator")
	}
	if locator.URI != uri {
		t.Errorf("URI = %q, want %q", locator.URI, uri)
	}
	if locator.MediaID != "tt0108052" {
		t.Errorf("MediaID = %q, want tt0108052", locator.MediaID)
	}
}

func TestHostOf(t *testing.T) {
	if got := HostOf("https://CDN7.Example.NET/movies/a.mp4"); got != "cdn7.example.net" {
		t.Errorf("HostOf = %q, want cdn7.example.net", got)
	}
	if got := HostOf("http://bad host/a.mp4"); got != "" {
		t.Errorf("HostOf on unparseable = %q, want empty", got)
	}
}
