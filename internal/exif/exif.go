// Package exif reads capture metadata embedded in image files.
package exif

import (
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"phototidy/internal/tidy"
)

// exifLayout is the EXIF DateTime representation, which carries no zone.
const exifLayout = "2006:01:02 15:04:05"

// Reader extracts DateTimeOriginal, Make, Model and Artist. Files without
// EXIF data, or with unreadable tags, produce empty fields.
type Reader struct {
	logger tidy.Logger
}

func NewReader(logger tidy.Logger) *Reader {
	if logger == nil {
		logger = tidy.NewNopLogger()
	}
	return &Reader{logger: logger}
}

func (r *Reader) ReadMetadata(path string) tidy.Metadata {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Debug("no EXIF metadata", "path", path, "error", err)
		return tidy.Metadata{}
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		r.logger.Debug("no EXIF metadata", "path", path, "error", err)
		return tidy.Metadata{}
	}

	return tidy.Metadata{
		CapturedAt: normalizeTimestamp(stringTag(x, goexif.DateTimeOriginal)),
		Make:       stringTag(x, goexif.Make),
		Model:      stringTag(x, goexif.Model),
		Artist:     stringTag(x, goexif.Artist),
	}
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return clean(s)
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// normalizeTimestamp converts an EXIF date to the inventory layout. The wall
// clock value is kept and labelled UTC. Unparseable input yields "".
func normalizeTimestamp(raw string) string {
	raw = clean(raw)
	if raw == "" {
		return ""
	}
	t, err := time.ParseInLocation(exifLayout, raw, time.UTC)
	if err != nil {
		return ""
	}
	return tidy.FormatTimestamp(t)
}

// Compile-time check that Reader implements tidy.MetadataReader interface
var _ tidy.MetadataReader = (*Reader)(nil)
