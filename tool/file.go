package tool

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/rutno/clouddrive-go/types"
	"github.com/shirou/gopsutil/v4/disk"
)

var fileIcons = map[string]string{
	"pdf": "📄", "doc": "📝", "docx": "📝",
	"xls": "📊", "xlsx": "📊", "ppt": "📽️", "pptx": "📽️",
	"jpg": "🖼️", "jpeg": "🖼️", "png": "🖼️", "gif": "🖼️", "webp": "🖼️", "svg": "🖼️",
	"mp4": "🎬", "webm": "🎬", "ogg": "🎬",
	"mp3": "🎵", "wav": "🎵",
	"zip": "📦", "rar": "📦",
	"txt": "📃",
}

// FileIcon returns the display icon for a file name based on its extension.
func FileIcon(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if icon, ok := fileIcons[ext]; ok {
		return icon
	}
	return "📁"
}

// FormatFileSize renders a byte count as B/KB/MB/GB with two decimals.
func FormatFileSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	if bytes < 0 {
		bytes = 0
	}
	pow := 0
	if bytes > 0 {
		pow = int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	}
	if pow > len(units)-1 {
		pow = len(units) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(pow))
	return fmt.Sprintf("%s %s", trimFloat(value), units[pow])
}

func trimFloat(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%d", int64(rounded))
	}
	return fmt.Sprintf("%g", rounded)
}

// StagedBlobName generates a fresh on-disk name that keeps only the original
// file extension, never the client-supplied name.
func StagedBlobName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return GenerateID("") + ext
}

// DiskStorageInfo reports usage of the volume holding the blob directory.
func DiskStorageInfo(blobDir string) (types.StorageInfo, error) {
	usage, err := disk.Usage(blobDir)
	if err != nil {
		return types.StorageInfo{}, err
	}
	return types.StorageInfo{
		Total:          usage.Total,
		Used:           usage.Used,
		Free:           usage.Free,
		TotalFormatted: FormatFileSize(int64(usage.Total)),
		UsedFormatted:  FormatFileSize(int64(usage.Used)),
		FreeFormatted:  FormatFileSize(int64(usage.Free)),
		UsagePercent:   usage.UsedPercent,
	}, nil
}
