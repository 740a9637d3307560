package services

import (
	"strings"

	"github.com/damacus/iron-index/internal/models"
	"github.com/damacus/iron-index/internal/utils"
)

// NormalizeListing turns raw listing pages into listing rows.
//
// Names are made relative by stripping the prefix each page echoed back.
// Keys that do not start with that prefix are dropped, as is the folder
// marker whose key equals the prefix itself. Within a page folders come
// before files; pages keep the order the store returned them in.
func NormalizeListing(batches []ListBatch) []models.ListEntry {
	var entries []models.ListEntry

	for _, batch := range batches {
		for _, prefix := range batch.CommonPrefixes {
			name, ok := stripPrefix(prefix, batch.Prefix)
			if !ok {
				continue
			}
			entries = append(entries, models.ListEntry{
				Name:        name,
				IsDirectory: true,
				SizeHuman:   models.DirSize,
			})
		}

		for _, obj := range batch.Contents {
			// A key equal to the prefix is the listed folder's own marker.
			name, ok := stripPrefix(obj.Key, batch.Prefix)
			if !ok || obj.Size < 0 {
				continue
			}
			size := uint64(obj.Size)
			entries = append(entries, models.ListEntry{
				Name:         name,
				SizeBytes:    size,
				SizeHuman:    utils.FormatBytes(size),
				LastModified: obj.LastModified,
			})
		}
	}

	return entries
}

// stripPrefix fails when key is outside prefix, and for the folder marker
// object whose key is the prefix itself: that is the listed folder, not a child.
func stripPrefix(key, prefix string) (string, bool) {
	name, ok := strings.CutPrefix(key, prefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
