package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FilePrefix names daily log files: tallyvm-2006-01-02.log.
const FilePrefix = "tallyvm-"

const dateLayout = "2006-01-02"

// dailyFile is a WriteSyncer that appends to one file per day and switches
// files on the first write after midnight.
type dailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	date string
	file *os.File
}

func openDailyFile(dir string) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	d := &dailyFile{dir: dir, now: time.Now}
	if err := d.rotate(d.now().Format(dateLayout)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) path(date string) string {
	return filepath.Join(d.dir, FilePrefix+date+".log")
}

func (d *dailyFile) rotate(date string) error {
	f, err := os.OpenFile(d.path(date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = f
	d.date = date
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return 0, os.ErrClosed
	}
	if date := d.now().Format(dateLayout); date != d.date {
		if err := d.rotate(date); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
