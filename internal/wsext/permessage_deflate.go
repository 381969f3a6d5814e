// Package wsext parses and serializes the permessage-deflate parameters of a
// Sec-WebSocket-Extensions header, per the permessage-deflate extension draft
// referenced by RFC 6455.
package wsext

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultWindowBits = 15
	minWindowBits     = 8
	maxWindowBits     = 15

	defaultServerNoContextTakeover = false
	defaultClientNoContextTakeover = false
)

// PerMessageDeflateParams holds the negotiated permessage-deflate parameters.
// Both max-window-bits fields use the same [8,15] range regardless of
// direction.
type PerMessageDeflateParams struct {
	ServerNoContextTakeover bool
	ClientNoContextTakeover bool
	ServerMaxWindowBits     int
	ClientMaxWindowBits     int
}

// Default returns the parameter set implied when no extension parameters are
// present at all.
func Default() PerMessageDeflateParams {
	return PerMessageDeflateParams{
		ServerNoContextTakeover: defaultServerNoContextTakeover,
		ClientNoContextTakeover: defaultClientNoContextTakeover,
		ServerMaxWindowBits:     defaultWindowBits,
		ClientMaxWindowBits:     defaultWindowBits,
	}
}

// Parse parses the parameter list of a single "permessage-deflate" extension
// token (the part after the extension name, semicolon-separated). Unknown
// parameters are rejected, matching the reference parser's strictness.
func Parse(params string) (PerMessageDeflateParams, error) {
	result := Default()

	for _, raw := range strings.Split(params, ";") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		name, value, hasValue := cutParam(token)
		switch strings.ToLower(name) {
		case "server_no_context_takeover":
			if hasValue {
				return result, fmt.Errorf("wsext: %s takes no value", name)
			}
			result.ServerNoContextTakeover = true
		case "client_no_context_takeover":
			if hasValue {
				return result, fmt.Errorf("wsext: %s takes no value", name)
			}
			result.ClientNoContextTakeover = true
		case "server_max_window_bits":
			bits, err := parseWindowBits(value, hasValue)
			if err != nil {
				return result, fmt.Errorf("wsext: server_max_window_bits: %w", err)
			}
			result.ServerMaxWindowBits = bits
		case "client_max_window_bits":
			bits, err := parseWindowBits(value, hasValue)
			if err != nil {
				return result, fmt.Errorf("wsext: client_max_window_bits: %w", err)
			}
			result.ClientMaxWindowBits = bits
		default:
			return result, fmt.Errorf("wsext: unknown parameter %q", name)
		}
	}

	return result, nil
}

// parseWindowBits validates a max-window-bits value against [8,15]; an
// absent value is accepted and resolves to the default, the same way
// client_max_window_bits may appear as a bare flag offering negotiation.
func parseWindowBits(value string, hasValue bool) (int, error) {
	if !hasValue {
		return defaultWindowBits, nil
	}

	bits, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if bits < minWindowBits || bits > maxWindowBits {
		return 0, fmt.Errorf("out of range [%d,%d]: %d", minWindowBits, maxWindowBits, bits)
	}
	return bits, nil
}

// cutParam splits a "name=value" or bare "name" token.
func cutParam(token string) (name, value string, hasValue bool) {
	idx := strings.IndexByte(token, '=')
	if idx < 0 {
		return token, "", false
	}
	name = strings.TrimSpace(token[:idx])
	value = strings.Trim(strings.TrimSpace(token[idx+1:]), `"`)
	return name, value, true
}

// String serializes params back into extension-parameter form, omitting
// fields at their default value.
func (p PerMessageDeflateParams) String() string {
	var parts []string
	if p.ServerNoContextTakeover {
		parts = append(parts, "server_no_context_takeover")
	}
	if p.ClientNoContextTakeover {
		parts = append(parts, "client_no_context_takeover")
	}
	if p.ServerMaxWindowBits != defaultWindowBits {
		parts = append(parts, fmt.Sprintf("server_max_window_bits=%d", p.ServerMaxWindowBits))
	}
	if p.ClientMaxWindowBits != defaultWindowBits {
		parts = append(parts, fmt.Sprintf("client_max_window_bits=%d", p.ClientMaxWindowBits))
	}
	return strings.Join(parts, "; ")
}
