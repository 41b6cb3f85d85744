/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// BackupsDirName is created below the output dir when backups are enabled.
const BackupsDirName = "backups"

// WriteFileAtomic replaces path with data. The data is written to a temp file in the same
// directory, synced and renamed over path. When backupDir is not empty and path exists, the
// previous file is first copied to backupDir/<name>.<stamp>.bak.
func WriteFileAtomic(path string, data []byte, backupDir string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if backupDir != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			bpath := backupPath(backupDir, filepath.Base(path), time.Now())
			if cerr := copyFile(path, bpath); cerr != nil {
				return fmt.Errorf("backup %s: %w", filepath.Base(path), cerr)
			}
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	// Windows cannot rename over an existing file.
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), rerr)
	}
	return nil
}

// backupStamp has a fixed width so backup names sort by time.
const backupStamp = "20060102-150405.000000000"

// backupPath returns a backup name for base that does not exist yet. A clash within the
// stamp resolution gets a numbered suffix, which sorts after the plain name.
func backupPath(backupDir, base string, now time.Time) string {
	stamp := now.Format(backupStamp)
	p := filepath.Join(backupDir, fmt.Sprintf("%s.%s.bak", base, stamp))
	for i := 1; ; i++ {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return p
		}
		p = filepath.Join(backupDir, fmt.Sprintf("%s.%s_%03d.bak", base, stamp, i))
	}
}

// Backups lists the backups of the file named name in backupDir, oldest first.
func Backups(backupDir, name string) ([]string, error) {
	ents, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		n := e.Name()
		if strings.HasPrefix(n, name+".") && strings.HasSuffix(n, ".bak") {
			out = append(out, filepath.Join(backupDir, n))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
