// Package pseudonym derives stable opaque identifiers from source-system
// patient and encounter numbers. The derivation is a one-way salted
// digest; raw identifiers never travel past this package.
package pseudonym

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
)

// Kind selects the root namespace an identifier is pseudonymized under.
type Kind int

const (
	Patient Kind = iota
	Encounter
)

// hashRegistry maps configured algorithm names (already normalized by
// the config package) to constructors. sha1 is the warehouse default.
var hashRegistry = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Pseudonymizer computes opaque identifiers as
// urlsafe_b64(digest(salt + root + "/" + rawID)). The output is a pure
// function of its configuration: changing salt, roots or algorithm
// invalidates every previously derived identifier, so those values must
// stay fixed for the lifetime of a warehouse.
type Pseudonymizer struct {
	salt          string
	patientRoot   string
	encounterRoot string
	newHash       func() hash.Hash
}

// New builds a Pseudonymizer for the given configuration. Unknown
// algorithm names are a fatal configuration error.
func New(algorithm, salt, patientRoot, encounterRoot string) (*Pseudonymizer, error) {
	newHash, ok := hashRegistry[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported pseudonym algorithm %q", algorithm)
	}
	return &Pseudonymizer{
		salt:          salt,
		patientRoot:   patientRoot,
		encounterRoot: encounterRoot,
		newHash:       newHash,
	}, nil
}

// Anonymize derives the opaque identifier for rawID under the namespace
// selected by kind. Deterministic for a fixed configuration.
func (p *Pseudonymizer) Anonymize(kind Kind, rawID string) string {
	root := p.patientRoot
	if kind == Encounter {
		root = p.encounterRoot
	}
	composite := root + "/" + rawID
	if p.salt != "" {
		composite = p.salt + composite
	}
	return p.digest(composite)
}

// HashContent digests an arbitrary string with the configured algorithm.
// Importer definitions use it to fingerprint themselves for the
// source-system tag.
func (p *Pseudonymizer) HashContent(content string) string {
	return p.digest(content)
}

func (p *Pseudonymizer) digest(s string) string {
	h := p.newHash()
	h.Write([]byte(s))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}
