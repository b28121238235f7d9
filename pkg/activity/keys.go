package activity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// Key layout:
//
//	active:<period-label>:raw[:<bucket>]      -> set of entity ids
//	active:<period-label>[:<bucket>]          -> collapsed count
//	temp:<inter|union>:<hash-of-source-keys>  -> scratch set
const (
	activePrefix = "active"
	rawSegment   = "raw"
	tempPrefix   = "temp"
	keySeparator = ":"
)

// NoBucket addresses the whole population of a period.
const NoBucket = ""

type TempKind string

const (
	TempIntersection TempKind = "inter"
	TempUnion        TempKind = "union"
)

// MakeKey joins the non-empty pieces with colons.
func MakeKey(pieces ...string) string {
	nonEmpty := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece != "" {
			nonEmpty = append(nonEmpty, piece)
		}
	}
	return strings.Join(nonEmpty, keySeparator)
}

// RawKey returns the key of the set holding the ids active in bucket during the labelled period.
func RawKey(label string, bucket string) string {
	return MakeKey(activePrefix, label, rawSegment, bucket)
}

// CollapsedKey returns the key of the scalar count written when the labelled period is collapsed.
func CollapsedKey(label string, bucket string) string {
	return MakeKey(activePrefix, label, bucket)
}

// TempKey returns a scratch key for staging the intersection or union of sources.
// The name is derived from the source keys, so identical inputs give identical names;
// a non-empty token makes the name unique to one collapse invocation.
func TempKey(kind TempKind, sources []string, token string) string {
	pieces := sources
	if token != "" {
		pieces = append(append(make([]string, 0, len(sources)+1), sources...), token)
	}
	sum := md5.Sum([]byte(strings.Join(pieces, " ")))
	return MakeKey(tempPrefix, string(kind), hex.EncodeToString(sum[:]))
}

// Key is a parsed raw or collapsed key.
type Key struct {
	Label  string
	Raw    bool
	Bucket string
}

func (k Key) String() string {
	if k.Raw {
		return RawKey(k.Label, k.Bucket)
	}
	return CollapsedKey(k.Label, k.Bucket)
}

// ParseKey is the inverse of RawKey and CollapsedKey. Everything after the period label
// (and the raw marker, if present) is the bucket, so buckets may themselves contain colons.
// A collapsed key whose bucket starts with "raw" can't be told apart from a raw key and is
// parsed as one.
func ParseKey(key string) (Key, error) {
	parts := strings.SplitN(key, keySeparator, 3)
	if len(parts) < 2 || parts[0] != activePrefix || parts[1] == "" {
		return Key{}, errors.WithStack(&ErrInvalidArgument{
			Name:    "key",
			Value:   key,
			Message: "not an activity key",
		})
	}
	k := Key{Label: parts[1]}
	if len(parts) == 2 {
		return k, nil
	}
	rest := parts[2]
	if rest == rawSegment {
		k.Raw = true
		return k, nil
	}
	if strings.HasPrefix(rest, rawSegment+keySeparator) {
		k.Raw = true
		k.Bucket = strings.TrimPrefix(rest, rawSegment+keySeparator)
		return k, nil
	}
	k.Bucket = rest
	return k, nil
}
