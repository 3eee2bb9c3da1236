package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sealink-protocol/sealink-go/pkg/version"
)

// mDNS constants.
const (
	// ServiceType is the DNS-SD service type for sealink endpoints.
	ServiceType = "_sealink._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the conventional sealink port.
	DefaultPort = 4040

	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// MaxInstanceNameLen caps advertised instance names per DNS-SD.
	MaxInstanceNameLen = 63
)

// TXT record key constants.
const (
	// TXTKeyVersion is the protocol version.
	TXTKeyVersion = "v"

	// TXTKeyName is the human-readable endpoint name (optional).
	TXTKeyName = "name"
)


// Discovery errors.
var (
	// ErrMissingRequired indicates a required TXT key is absent.
	ErrMissingRequired = errors.New("missing required TXT record")

	// ErrInvalidVersion indicates the version TXT record is malformed or
	// unsupported.
	ErrInvalidVersion = errors.New("invalid protocol version")

	// ErrNotFound indicates no endpoint was discovered before the
	// timeout.
	ErrNotFound = errors.New("no endpoint found")
)

// Endpoint describes one advertised sealink endpoint.
type Endpoint struct {
	// Instance is the DNS-SD instance name.
	Instance string

	// Name is the human-readable endpoint name, if advertised.
	Name string

	// Host is the advertised hostname.
	Host string

	// Port is the TCP port.
	Port uint16

	// Addresses are the endpoint's IP addresses, as strings.
	Addresses []string

	// Version is the advertised protocol version.
	Version version.Version
}

// Addr returns a dialable "host:port" for the endpoint, preferring a
// resolved address over the hostname.
func (e *Endpoint) Addr() string {
	host := e.Host
	if len(e.Addresses) > 0 {
		host = e.Addresses[0]
	}
	return fmt.Sprintf("%s:%d", strings.TrimSuffix(host, "."), e.Port)
}

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for a sealink endpoint.
func EncodeTXT(name string) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyVersion: version.Current,
	}
	if name != "" {
		txt[TXTKeyName] = name
	}
	return txt
}

// DecodeTXT parses TXT records from a discovered endpoint. Endpoints
// advertising an incompatible major version are rejected.
func DecodeTXT(txt TXTRecordMap) (v version.Version, name string, err error) {
	vStr, ok := txt[TXTKeyVersion]
	if !ok {
		return version.Version{}, "", fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	v, err = version.Parse(vStr)
	if err != nil {
		return version.Version{}, "", fmt.Errorf("%w: %v", ErrInvalidVersion, err)
	}
	if !v.Compatible(version.MustParse(version.Current)) {
		return version.Version{}, "", fmt.Errorf("%w: %s", ErrInvalidVersion, vStr)
	}
	return v, txt[TXTKeyName], nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}
