package services

import (
	"strings"
	"testing"

	"github.com/damacus/iron-index/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeListing_FoldersBeforeFiles(t *testing.T) {
	entries := NormalizeListing([]ListBatch{{
		Prefix:         "folder/",
		CommonPrefixes: []string{"folder/sub/", "folder/other/"},
		Contents: []ObjectSummary{
			{Key: "folder/file.txt", Size: 1024, LastModified: "2024-05-28T17:19:04.000Z"},
			{Key: "folder/empty", Size: 0, LastModified: "2024-05-28T17:19:05.000Z"},
		},
	}})

	assert.Equal(t, []models.ListEntry{
		{Name: "sub/", IsDirectory: true, SizeHuman: "[DIR]"},
		{Name: "other/", IsDirectory: true, SizeHuman: "[DIR]"},
		{Name: "file.txt", SizeBytes: 1024, SizeHuman: "1.024 kB", LastModified: "2024-05-28T17:19:04.000Z"},
		{Name: "empty", SizeBytes: 0, SizeHuman: "0.000 B", LastModified: "2024-05-28T17:19:05.000Z"},
	}, entries)
}

func TestNormalizeListing_RootPrefix(t *testing.T) {
	entries := NormalizeListing([]ListBatch{{
		Prefix:         "",
		CommonPrefixes: []string{"folder/"},
		Contents:       []ObjectSummary{{Key: "file.txt", Size: 11}},
	}})

	assert.Equal(t, []models.ListEntry{
		{Name: "folder/", IsDirectory: true, SizeHuman: "[DIR]"},
		{Name: "file.txt", SizeBytes: 11, SizeHuman: "11.000 B"},
	}, entries)
}

func TestNormalizeListing_BatchesKeepStoreOrder(t *testing.T) {
	entries := NormalizeListing([]ListBatch{
		{Prefix: "p/", CommonPrefixes: []string{"p/b/"}, Contents: []ObjectSummary{{Key: "p/z.txt"}}},
		{Prefix: "p/", CommonPrefixes: []string{"p/a/"}, Contents: []ObjectSummary{{Key: "p/y.txt"}}},
	})

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	// no sorting: folders first within each page, pages concatenated
	assert.Equal(t, []string{"b/", "z.txt", "a/", "y.txt"}, names)
}

func TestNormalizeListing_UsesEachBatchPrefix(t *testing.T) {
	entries := NormalizeListing([]ListBatch{
		{Prefix: "a/", Contents: []ObjectSummary{{Key: "a/1.txt"}}},
		{Prefix: "b/", Contents: []ObjectSummary{{Key: "b/2.txt"}}},
	})

	assert.Len(t, entries, 2)
	assert.Equal(t, "1.txt", entries[0].Name)
	assert.Equal(t, "2.txt", entries[1].Name)
}

func TestNormalizeListing_DropsInconsistentEntries(t *testing.T) {
	entries := NormalizeListing([]ListBatch{{
		Prefix:         "folder/",
		CommonPrefixes: []string{"elsewhere/sub/", "folder/ok/"},
		Contents: []ObjectSummary{
			{Key: "elsewhere/file.txt", Size: 1},
			{Key: "folder/", Size: 0}, // folder marker
			{Key: "folder/broken", Size: -1},
			{Key: "folder/kept.txt", Size: 3},
		},
	}})

	assert.Equal(t, []models.ListEntry{
		{Name: "ok/", IsDirectory: true, SizeHuman: "[DIR]"},
		{Name: "kept.txt", SizeBytes: 3, SizeHuman: "3.000 B"},
	}, entries)
}

func TestNormalizeListing_Empty(t *testing.T) {
	assert.Empty(t, NormalizeListing(nil))
	assert.Empty(t, NormalizeListing([]ListBatch{{Prefix: "x/"}}))
}

func TestNormalizeListing_NamesNeverKeepPrefix(t *testing.T) {
	prefixes := []string{"a/", "docs/2024/", "x/x/", "deep/er/est/"}
	children := []string{"sub/", "x/", "file.txt", "a b.txt"}

	for _, p := range prefixes {
		t.Run(p, func(t *testing.T) {
			batch := ListBatch{Prefix: p}
			for _, child := range children {
				if strings.HasSuffix(child, "/") {
					batch.CommonPrefixes = append(batch.CommonPrefixes, p+child)
				} else {
					batch.Contents = append(batch.Contents, ObjectSummary{Key: p + child, Size: 10})
				}
			}

			entries := NormalizeListing([]ListBatch{batch, batch})

			assert.Len(t, entries, 2*len(children))
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name, p), "name %q still starts with %q", e.Name, p)
				assert.Contains(t, children, e.Name)
			}
		})
	}
}
