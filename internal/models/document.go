package models

import (
	"mime"
	"path/filepath"
	"strings"
)

// UploadedFile is one document chosen by the user. Data is never modified
// after the file has been read.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func NewUploadedFile(name, contentType string, data []byte) UploadedFile {
	if contentType == "" {
		contentType = ContentTypeFor(name)
	}
	return UploadedFile{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}
}

func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// IsHTML reports whether the file looks like an HTML document, judged by its
// content type first and its extension second.
func (f UploadedFile) IsHTML() bool {
	ct := strings.ToLower(f.ContentType)
	if strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml") {
		return true
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
