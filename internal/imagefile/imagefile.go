// Package imagefile reads image files for display: MIME type, data URLs and
// best-effort metadata.
package imagefile

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register GIF with image.DecodeConfig
	_ "image/jpeg" // register JPEG with image.DecodeConfig
	_ "image/png"  // register PNG with image.DecodeConfig
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // register WebP with image.DecodeConfig

	"imagesaid/internal/common/fsutil"
	"imagesaid/pkg/types"
)

const defaultMIME = "image/jpeg"

var mimeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"avif": "image/avif",
}

// MIMEType picks a MIME type from the file extension, case-insensitively.
// Unknown extensions map to image/jpeg.
func MIMEType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	return defaultMIME
}

// DataURL reads path and returns it as a base64 data URL.
func DataURL(path string) (string, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", MIMEType(path), base64.StdEncoding.EncodeToString(b)), nil
}

// Stat returns what can be learned about path. It never fails: fields that
// cannot be read are left empty and Size is -1 when the file cannot be
// stat'ed.
func Stat(path string) types.ImageInfo {
	info := types.ImageInfo{Filename: filepath.Base(path), Size: -1, SizeText: "Unknown"}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return info
	}
	info.Size = fi.Size()
	info.SizeText = fmt.Sprintf("%d bytes", fi.Size())

	data, err := os.ReadFile(path)
	if err != nil {
		return info
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height, info.Format = cfg.Width, cfg.Height, format
	}
	readEXIF(data, &info)
	return info
}

func readEXIF(data []byte, info *types.ImageInfo) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	if t, err := x.DateTime(); err == nil {
		info.TakenAt = t.Format(time.RFC3339)
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			info.Camera = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	}
}
