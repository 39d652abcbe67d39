// Package athlete derives stable athlete identifiers.
//
// The federation source carries its own numeric athlete IDs; every
// other source only has name, gender and birth date. Derived IDs are
// negative so the two spaces can never collide.
package athlete

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"nfwa/internal"
)

// DeriveID hashes (source, gender, name, birth) into a stable negative
// identifier. The same inputs always produce the same ID; athletes are
// never merged across sources.
func DeriveID(source internal.SourceID, gender internal.Gender, name string, birthDate *string) int64 {
	birth := ""
	if birthDate != nil {
		birth = *birthDate
	}
	key := fmt.Sprintf("%s|%s|%s|%s", source, gender, strings.ToLower(strings.TrimSpace(name)), birth)
	digest := sha1.Sum([]byte(key))
	n := binary.BigEndian.Uint64(digest[:8]) & (1<<63 - 1)
	return -1 - int64(n)
}

// ResolveID prefers a native source ID and falls back to a derived one.
// The transcribed pre-2000 archives describe the same athletes as the
// legacy federation pages, so the two share an ID namespace.
func ResolveID(r internal.RawResult) int64 {
	if r.AthleteNativeID != nil && *r.AthleteNativeID > 0 {
		return *r.AthleteNativeID
	}
	source := r.Source
	if source == internal.SourceOldData {
		source = internal.SourceFriidrett
	}
	return DeriveID(source, r.Gender, r.AthleteName, r.BirthDate)
}
