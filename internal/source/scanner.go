package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir lists the CSV files directly inside dir, newest first.
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// LatestCSV returns the newest CSV in dir, or "" if there is none.
func LatestCSV(dir string) (string, error) {
	files, err := ScanDir(dir)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[0].Path, nil
}
