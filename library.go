package picocart

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/picocart/cart"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/palette"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one indexed cartridge.
type Entry struct {
	SHA1    string
	Path    string
	Title   string
	Author  string
	Version int
	Sfx     int
	Music   int
	Label   []byte
}

// NewEntry summarises c, found at path with checksum sha. The label, if any,
// is kept as a PNG.
func NewEntry(path, sha string, c *cart.Cart) (*Entry, error) {
	e := &Entry{
		SHA1:    sha,
		Path:    path,
		Title:   c.Title(),
		Author:  c.Author(),
		Version: c.Version,
	}

	for _, s := range c.Sfx {
		if s != nil && len(s.Notes) > 0 {
			e.Sfx++
		}
	}
	for _, m := range c.Music {
		if len(m.Patterns) > 0 {
			e.Music++
		}
	}

	if c.Label != nil {
		b := new(bytes.Buffer)
		if err := gfx.EncodePNG(b, c.Label, palette.Default); err != nil {
			return nil, err
		}
		e.Label = b.Bytes()
	}

	return e, nil
}

// Library is the SQLite index of scanned cartridges.
type Library struct {
	db *sql.DB
}

// NewLibrary opens or creates the library in file.
func NewLibrary(file string) (*Library, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS label (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, png BLOB NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS cart (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, path TEXT NOT NULL, title TEXT NOT NULL, author TEXT NOT NULL, version INTEGER NOT NULL, sfx INTEGER NOT NULL, music INTEGER NOT NULL, label_id INTEGER, FOREIGN KEY(label_id) REFERENCES label(id))"); err != nil {
		return nil, err
	}

	return &Library{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}

func (l *Library) addLabel(b []byte) (int64, error) {
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := l.db.QueryRow("SELECT id FROM label WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := l.db.Exec("INSERT INTO label (sha1, png) VALUES (?, ?)", sha, b)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// Add indexes e. A cartridge already indexed under the same checksum is
// updated in place.
func (l *Library) Add(e *Entry) (int64, error) {
	var label sql.NullInt64
	if e.Label != nil {
		id, err := l.addLabel(e.Label)
		if err != nil {
			return 0, err
		}
		label.Int64 = id
		label.Valid = true
	}

	var id int64
	switch err := l.db.QueryRow("SELECT id FROM cart WHERE sha1 = ?", e.SHA1).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := l.db.Exec("INSERT INTO cart (sha1, path, title, author, version, sfx, music, label_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", e.SHA1, e.Path, e.Title, e.Author, e.Version, e.Sfx, e.Music, label)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := l.db.Exec("UPDATE cart SET path = ?, title = ?, author = ?, version = ?, sfx = ?, music = ?, label_id = ? WHERE id = ?", e.Path, e.Title, e.Author, e.Version, e.Sfx, e.Music, label, id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

const selectEntry = "SELECT c.sha1, c.path, c.title, c.author, c.version, c.sfx, c.music, l.png FROM cart AS c LEFT JOIN label AS l ON c.label_id = l.id"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	e := new(Entry)
	if err := row.Scan(&e.SHA1, &e.Path, &e.Title, &e.Author, &e.Version, &e.Sfx, &e.Music, &e.Label); err != nil {
		return nil, err
	}
	return e, nil
}

// FindBySHA1 returns the cartridge with checksum sha, or nil if there is
// none.
func (l *Library) FindBySHA1(sha string) (*Entry, error) {
	e, err := scanEntry(l.db.QueryRow(selectEntry+" WHERE c.sha1 = ?", sha))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// Entries returns every indexed cartridge ordered by title then path.
func (l *Library) Entries() ([]*Entry, error) {
	rows, err := l.db.Query(selectEntry + " ORDER BY c.title, c.path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
