package storage

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is the index catalog of one collection, materialised once so a
// planning request never reads the live catalog mid-way.
type Snapshot struct {
	Collection  string
	Records     []IndexRecord
	Fingerprint uint64
}

// TakeSnapshot reads the catalog of collection from b.
func TakeSnapshot(ctx context.Context, b Backend, collection string) (Snapshot, error) {
	recs, err := b.Indexes(ctx, collection)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Collection:  collection,
		Records:     recs,
		Fingerprint: Fingerprint(recs),
	}, nil
}

// Fingerprint hashes the names, key patterns and order of recs. Two snapshots
// with equal fingerprints plan identically.
func Fingerprint(recs []IndexRecord) uint64 {
	d := xxhash.New()
	for _, r := range recs {
		_, _ = d.WriteString(r.Name)
		_, _ = d.Write([]byte{0})
		_, _ = d.Write(r.KeyPattern)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.WriteString(strconv.Itoa(len(recs)))
	return d.Sum64()
}

// FingerprintString renders a fingerprint the way it is shown to users.
func FingerprintString(fp uint64) string {
	return strconv.FormatUint(fp, 16)
}
