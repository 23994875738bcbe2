package media

import (
	"bytes"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds song information.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Label joins artist and title for window titles.
func (m Metadata) Label() string {
	if m.Artist != "" {
		return m.Artist + " - " + m.Title
	}
	return m.Title
}

// ReadMetadata reads ID3v2 tags from data, falling back to the file name of
// source (a path or URL).
func ReadMetadata(data []byte, source string) Metadata {
	tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err == nil {
		m := Metadata{
			Title:  strings.TrimSpace(tag.Title()),
			Artist: strings.TrimSpace(tag.Artist()),
			Album:  strings.TrimSpace(tag.Album()),
		}
		if m.Title != "" {
			return m
		}
	}

	return Metadata{Title: baseName(source)}
}

// baseName is the file name of source without its extension. A URL with no
// path yields its host unchanged.
func baseName(source string) string {
	base := filepath.Base(source)
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		base = path.Base(u.Path)
		if base == "/" || base == "." {
			return u.Host
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
