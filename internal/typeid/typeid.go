package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixFrame    = "frame"
	PrefixImage    = "img"
	PrefixShape    = "shape"
	PrefixText     = "text"
	PrefixFreehand = "draw"
	PrefixPath     = "path"
	PrefixSession  = "sess"
	PrefixAsset    = "asset"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewFrameID() string    { return New(PrefixFrame) }
func NewImageID() string    { return New(PrefixImage) }
func NewShapeID() string    { return New(PrefixShape) }
func NewTextID() string     { return New(PrefixText) }
func NewFreehandID() string { return New(PrefixFreehand) }
func NewPathID() string     { return New(PrefixPath) }
func NewSessionID() string  { return New(PrefixSession) }
func NewAssetID() string    { return New(PrefixAsset) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// Prefix returns the type prefix of id, or "" if id is not a valid typeid.
func Prefix(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}
