package content

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Source identifies where a resolved uri is read from.
type Source string

const (
	SourceHTTP    Source = "http"
	SourceGateway Source = "gateway"
	SourceAPI     Source = "api"
	SourceData    Source = "data"
)

// Target is a resolved content location.
type Target struct {
	Source Source
	URL    string // fetch URL, empty for data URIs
	Data   []byte // inline payload of data URIs
}

// Resolve maps a token URI to a fetchable target. ipfs:// URIs are rewritten
// to gatewayURL; data: URIs are decoded inline.
func Resolve(uri, gatewayURL string) (Target, error) {
	uri = strings.TrimSpace(uri)

	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		p := strings.TrimPrefix(uri, "ipfs://")
		p = strings.TrimPrefix(p, "ipfs/")
		if p == "" {
			return Target{}, fmt.Errorf("%w: empty ipfs path", ErrUnsupportedURI)
		}
		return Target{Source: SourceGateway, URL: strings.TrimRight(gatewayURL, "/") + "/ipfs/" + p}, nil

	case strings.HasPrefix(uri, "data:"):
		data, err := decodeDataURI(uri)
		if err != nil {
			return Target{}, err
		}
		return Target{Source: SourceData, Data: data}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrUnsupportedURI, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	return Target{Source: SourceHTTP, URL: uri}, nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<payload>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data uri", ErrUnsupportedURI)
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode base64 payload: %v", ErrUnsupportedURI, err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: unescape payload: %v", ErrUnsupportedURI, err)
	}
	return []byte(data), nil
}
