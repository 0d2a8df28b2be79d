// Package chatdir knows where transcripts are saved by default and how the
// conversation name is recovered from a saved file name.
//
// Saved files live in {dataDir}/chatgpt/ and are named
// {user}_{name}_{YYYY-MM-DD}[_{n}].{txt|json}.
package chatdir

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	SubDir      = "chatgpt"
	DefaultName = "chatgpt"
	DateLayout  = "2006-01-02"
)

// The lazy prefix group stops at the last name-like segment, so that the
// date and the collision index are both part of the suffix:
// alice_gpt_2024-01-02_1.txt yields "gpt".
var findName = regexp.MustCompile(`^(?:.+?_)*?([a-zA-Z0-9]+)(?:_[0-9\-]+)*\..*$`)

// NameFromFilename extracts the conversation name of a saved file. A base
// name that does not follow the naming scheme is returned unchanged.
func NameFromFilename(filename string) string {
	return findName.ReplaceAllString(filepath.Base(filename), "$1")
}

// Dir is the directory holding saved transcripts.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, SubDir)
}

type PathOptions struct {
	User      string
	Name      string
	Label     string
	JSON      bool
	Overwrite bool
	Now       time.Time
}

// DefaultPath derives a save path in Dir(dataDir), creating the directory.
// Unless Overwrite is set, an existing file makes it append _1, _2, ... to
// the stem until the name is free.
func DefaultPath(fs afero.Fs, dataDir string, o PathOptions) (string, error) {
	dir := Dir(dataDir)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "could not create %s", dir)
	}

	user := o.User
	if user == "" {
		user = "user"
	}
	name := o.Name
	if name == "" {
		name = o.Label
	}
	if name == "" {
		name = DefaultName
	}
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	ext := ".txt"
	if o.JSON {
		ext = ".json"
	}

	prefix := filepath.Join(dir, fmt.Sprintf("%s_%s_%s", user, name, now.Format(DateLayout)))
	path := prefix + ext
	if o.Overwrite {
		return path, nil
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", err
	}
	for idx := 1; exists; idx++ {
		path = fmt.Sprintf("%s_%d%s", prefix, idx, ext)
		exists, err = afero.Exists(fs, path)
		if err != nil {
			return "", err
		}
	}

	return path, nil
}

// ListSaved returns the base names of the regular files in Dir(dataDir),
// sorted. A missing directory yields an empty list.
func ListSaved(fs afero.Fs, dataDir string) ([]string, error) {
	dir := Dir(dataDir)
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{}, nil
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s", dir)
	}

	ret := []string{}
	for _, info := range infos {
		if info.Mode().IsRegular() {
			ret = append(ret, info.Name())
		}
	}
	sort.Strings(ret)
	return ret, nil
}

// Resolve returns path if it names an existing file, otherwise the file of
// the same base name in Dir(dataDir) if that exists.
func Resolve(fs afero.Fs, dataDir string, path string) (string, bool) {
	if ok, _ := isFile(fs, path); ok {
		return path, true
	}
	guess := filepath.Join(Dir(dataDir), filepath.Base(path))
	if ok, _ := isFile(fs, guess); ok {
		return guess, true
	}
	return "", false
}

type Candidate struct {
	Name string
	File string
	Path string
}

// FindByName lists the saved files whose extracted name is name. A saved
// file whose base name is exactly name is returned alone.
func FindByName(fs afero.Fs, dataDir string, name string) ([]Candidate, error) {
	saved, err := ListSaved(fs, dataDir)
	if err != nil {
		return nil, err
	}

	dir := Dir(dataDir)
	for _, f := range saved {
		if f == name {
			return []Candidate{{Name: NameFromFilename(f), File: f, Path: filepath.Join(dir, f)}}, nil
		}
	}

	ret := []Candidate{}
	for _, f := range saved {
		if n := NameFromFilename(f); n == name {
			ret = append(ret, Candidate{Name: n, File: f, Path: filepath.Join(dir, f)})
		}
	}
	return ret, nil
}

func isFile(fs afero.Fs, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	info, err := fs.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
