package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// PageExtensions are the raster formats accepted as input pages.
var PageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// ChapterImageExtensions are the files copied by the chapter merger. It is a
// wider set than PageExtensions since merging never decodes.
var ChapterImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".jxl", ".avif"}

// DocumentExtensions are the container formats that can be rendered into pages.
var DocumentExtensions = []string{".pdf", ".cbz", ".epub", ".xps", ".fb2", ".mobi"}

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsImage     bool
	IsDocument  bool
	Decodable   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")

	// CBZ archives sniff as plain zip
	if info.MIMEType == "application/zip" && strings.EqualFold(filepath.Ext(filePath), ".cbz") {
		info.MIMEType = "application/vnd.comicbook+zip"
		info.Extension = ".cbz"
	}

	d.classify(info)
	return info, nil
}

// classify determines whether the page decoders or the document renderer can handle the file
func (d *Detector) classify(info *FileTypeInfo) {
	switch info.MIMEType {
	case "image/png":
		info.IsImage, info.Decodable = true, true
		info.Description = "PNG image"
	case "image/jpeg":
		info.IsImage, info.Decodable = true, true
		info.Description = "JPEG image"
	case "image/webp":
		info.IsImage, info.Decodable = true, true
		info.Description = "WebP image"
	case "application/pdf":
		info.IsDocument = true
		info.Description = "PDF document"
	case "application/vnd.comicbook+zip":
		info.IsDocument = true
		info.Description = "Comic book archive"
	case "application/epub+zip":
		info.IsDocument = true
		info.Description = "EPUB book"
	default:
		if strings.HasPrefix(info.MIMEType, "image/") {
			// gif, bmp, avif, jxl: valid images with no registered page decoder
			info.IsImage = true
			info.Description = "Image file without page decoder"
			return
		}
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}

// IsPage checks that the file content is an image the page decoders can read.
func (d *Detector) IsPage(filePath string) (bool, error) {
	info, err := d.Detect(filePath)
	if err != nil {
		return false, err
	}
	return info.IsImage && info.Decodable, nil
}

// IsDocument checks that the file is a container the renderer can open. Formats
// without a stable magic signature (xps, fb2, mobi) are accepted by extension
// unless the content sniffs as an image.
func (d *Detector) IsDocument(filePath string) (bool, error) {
	info, err := d.Detect(filePath)
	if err != nil {
		return false, err
	}
	if info.IsDocument {
		return true, nil
	}
	return !info.IsImage && HasExtension(filePath, DocumentExtensions), nil
}
