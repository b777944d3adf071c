package payload

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

const (
	MAC_FIELD     = "MAC"
	MAC_SEPARATOR = "+"
)

var (
	ErrUnknownAlgorithm   = errors.New("unknown mac algorithm")
	ErrIncompleteDefaults = errors.New("defaults do not cover every mac field")
)

// Payload is the form body sent to the payment wall, field name to value.
type Payload map[string]string

// Algorithm names the one-way hash used for the MAC. The provider mandates it.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

var hashes = map[Algorithm]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
	SHA512: sha512.New,
}

func (a Algorithm) Valid() bool {
	_, ok := hashes[a]
	return ok
}

// DefaultFields is the field order the payment wall validates the MAC against.
var DefaultFields = []string{
	"VERSION",
	"STAMP",
	"AMOUNT",
	"REFERENCE",
	"MESSAGE",
	"LANGUAGE",
	"MERCHANT",
	"RETURN",
	"CANCEL",
	"REJECT",
	"DELAYED",
	"COUNTRY",
	"CURRENCY",
	"DEVICE",
	"CONTENT",
	"TYPE",
	"ALGORITHM",
	"DELIVERY_DATE",
	"FIRSTNAME",
	"FAMILYNAME",
	"ADDRESS",
	"POSTCODE",
	"POSTOFFICE",
	"SECURITY_KEY",
}

// Merge returns a new payload with every key of defaults and overrides,
// override values winning. Neither argument is modified.
func Merge(defaults, overrides Payload) Payload {
	merged := make(Payload, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Digest joins values with "+" and returns the uppercase hex hash of the result.
func Digest(algorithm Algorithm, values []string) (string, error) {
	newHash, ok := hashes[algorithm]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	h := newHash()
	h.Write([]byte(strings.Join(values, MAC_SEPARATOR)))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// ComputeMac digests the payload values in fields order. A field missing from
// the payload hashes as the empty string; Signer.Validate rules that out for
// configured defaults.
func ComputeMac(algorithm Algorithm, p Payload, fields []string) (string, error) {
	values := make([]string, len(fields))
	for i, field := range fields {
		values[i] = p[field]
	}
	return Digest(algorithm, values)
}

// Signer builds signed payloads from a fixed set of defaults.
type Signer struct {
	Defaults  Payload
	Fields    []string
	MacField  string
	Algorithm Algorithm
}

func NewSigner(defaults Payload, fields []string, algorithm Algorithm) *Signer {
	return &Signer{
		Defaults:  defaults,
		Fields:    fields,
		MacField:  MAC_FIELD,
		Algorithm: algorithm,
	}
}

// Validate reports configuration that would produce a MAC the provider rejects.
func (s *Signer) Validate() error {
	if !s.Algorithm.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s.Algorithm)
	}
	if len(s.Fields) == 0 {
		return errors.New("no mac fields configured")
	}
	var missing []string
	for _, field := range s.Fields {
		if field == s.MacField {
			return fmt.Errorf("mac field %s cannot be part of its own digest", s.MacField)
		}
		if _, ok := s.Defaults[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteDefaults, strings.Join(missing, ", "))
	}
	return nil
}

// Build merges overrides over the defaults and attaches the MAC.
func (s *Signer) Build(overrides Payload) (Payload, error) {
	merged := Merge(s.Defaults, overrides)
	mac, err := ComputeMac(s.Algorithm, merged, s.Fields)
	if err != nil {
		return nil, err
	}
	merged[s.MacField] = mac
	return merged, nil
}
