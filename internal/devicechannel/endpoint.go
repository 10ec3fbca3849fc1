package devicechannel

import (
	"errors"
	"net/url"
	"strings"
)

// EndpointPath is the device-control WebSocket path served by the device.
const EndpointPath = "/ws"

// ErrInvalidOrigin is returned when an endpoint cannot be derived from the
// hosting origin.
var ErrInvalidOrigin = errors.New("origin has no host")

// EndpointFor derives the channel endpoint from the origin the control surface
// was loaded from: wss for an https origin, ws otherwise, same host and port,
// fixed path.
func EndpointFor(origin *url.URL) (*url.URL, error) {
	if origin == nil || origin.Host == "" {
		return nil, ErrInvalidOrigin
	}

	scheme := "ws"
	if strings.EqualFold(origin.Scheme, "https") {
		scheme = "wss"
	}

	return &url.URL{
		Scheme: scheme,
		Host:   origin.Host,
		Path:   EndpointPath,
	}, nil
}
