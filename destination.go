package exportsync

import "strings"

// DestinationURL builds the object URL for filename. Any path already in
// bucket comes first, then prefix, then the filename, each joined by
// exactly one slash.
//
//	DestinationURL("gs://bucket", "data/", "f.csv")        // gs://bucket/data/f.csv
//	DestinationURL("gs://bucket/subpath", "data", "f.csv") // gs://bucket/subpath/data/f.csv
func DestinationURL(bucket, prefix, filename string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(bucket, "/"))
	b.WriteByte('/')
	if p := strings.Trim(prefix, "/"); p != "" {
		b.WriteString(p)
		b.WriteByte('/')
	}
	b.WriteString(filename)
	return b.String()
}
