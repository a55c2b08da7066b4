package content

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	const gw = "https://gw.example/"

	tests := []struct {
		uri    string
		source Source
		url    string
	}{
		{"ipfs://QmHash/1.json", SourceGateway, "https://gw.example/ipfs/QmHash/1.json"},
		{"ipfs://ipfs/QmHash", SourceGateway, "https://gw.example/ipfs/QmHash"},
		{"https://meta.example/1", SourceHTTP, "https://meta.example/1"},
		{" http://meta.example/2 ", SourceHTTP, "http://meta.example/2"},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.uri, gw)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.uri, err)
			continue
		}
		if got.Source != tt.source || got.URL != tt.url {
			t.Errorf("Resolve(%q) = %+v, want %s %s", tt.uri, got, tt.source, tt.url)
		}
	}
}

func TestResolve_DataURI(t *testing.T) {
	got, err := Resolve("data:application/json;base64,eyJuYW1lIjoieCJ9", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Source != SourceData || string(got.Data) != `{"name":"x"}` {
		t.Errorf("unexpected target %+v", got)
	}

	got, err = Resolve(`data:application/json,%7B%22a%22%3A1%7D`, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(got.Data) != `{"a":1}` {
		t.Errorf("unexpected payload %q", got.Data)
	}
}

func TestResolve_Unsupported(t *testing.T) {
	for _, uri := range []string{"", "ftp://x/y", "ipfs://", "data:nocomma", "ar://tx"} {
		if _, err := Resolve(uri, DefaultGatewayURL); !errors.Is(err, ErrUnsupportedURI) {
			t.Errorf("Resolve(%q): expected ErrUnsupportedURI, got %v", uri, err)
		}
	}
}
