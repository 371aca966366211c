package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"SwingScanner/internal/model"
)

// LoadStatus reads the scan status from a JSON file. Returns a zero status if the file doesn't exist.
func LoadStatus(filePath string) (*model.ScanStatus, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ScanStatus{}, nil
		}
		return nil, err
	}
	var st model.ScanStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveStatus writes the scan status to a JSON file.
func SaveStatus(filePath string, st *model.ScanStatus) error {
	st.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
