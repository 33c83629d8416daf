package inventory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// A book is persisted in a folder, as two JSONL files, one object per line.
// Both are rewritten as a whole and stay human-readable and git-friendly.
const (
	TransactionsFile = "transactions.jsonl"
	MatchesFile      = "matches.jsonl"
)

// EncodeTransactions writes transactions to w, one JSON object per line.
func EncodeTransactions(w io.Writer, txs ...Transaction) error {
	enc := json.NewEncoder(w)
	for _, t := range txs {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("could not encode transaction %d: %w", t.ID, err)
		}
	}
	return nil
}

// EncodeMatches writes matches to w, one JSON object per line.
func EncodeMatches(w io.Writer, matches ...Match) error {
	enc := json.NewEncoder(w)
	for _, m := range matches {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("could not encode match %s: %w", m.Key(), err)
		}
	}
	return nil
}

// decodeLines calls fn for every non-empty line of r. name is used in error messages.
func decodeLines(name string, r io.Reader, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue // Skip empty lines
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s:%d: %w", name, i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// DecodeTransactions reads a stream of JSONL transactions.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	err := decodeTransactions("transactions", r, func(t Transaction) error {
		txs = append(txs, t)
		return nil
	})
	return txs, err
}

func decodeTransactions(name string, r io.Reader, fn func(t Transaction) error) error {
	return decodeLines(name, r, func(line []byte) error {
		var t Transaction
		if err := json.Unmarshal(line, &t); err != nil {
			return fmt.Errorf("not a correct transaction: %w", err)
		}
		return fn(t)
	})
}

// DecodeBook reads a book from dir. A missing folder or file reads as empty.
//
// A save interrupted after its commit point is completed first, so that the
// transactions and matches read always come from the same save.
func DecodeBook(dir string) (*Book, error) {
	if err := completeSave(dir); err != nil {
		return nil, err
	}
	b := NewBook()

	f, err := os.Open(filepath.Join(dir, TransactionsFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, err
	}
	defer f.Close()
	err = decodeTransactions(f.Name(), f, func(t Transaction) error { return b.Add(t) })
	if err != nil {
		return nil, err
	}

	m, err := os.Open(filepath.Join(dir, MatchesFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, err
	}
	defer m.Close()
	err = decodeLines(m.Name(), m, func(line []byte) error {
		var match Match
		if err := json.Unmarshal(line, &match); err != nil {
			return fmt.Errorf("not a correct match: %w", err)
		}
		return b.AddMatches(match)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// commitFile lists the temporary files of a save, by the name they replace.
// Its presence means the save is committed but some renames may be missing.
const commitFile = "commit.json"

// EncodeBook writes b into dir, creating it if needed.
//
// Both files are replaced as a unit: they are written to temporary files
// first, then a commit file is created, and only then are they renamed into
// place. If a rename fails, the commit file stays and the next EncodeBook or
// DecodeBook completes the save.
func EncodeBook(dir string, b *Book) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := completeSave(dir); err != nil {
		return err
	}
	var txs []Transaction
	for t := range b.Transactions() {
		txs = append(txs, t)
	}
	var matches []Match
	for m := range b.Matches() {
		matches = append(matches, m)
	}

	pending := make(map[string]string)
	committed := false
	defer func() {
		if committed {
			return
		}
		for _, tmp := range pending {
			os.Remove(filepath.Join(dir, tmp))
		}
	}()
	tmp, err := writeTemp(filepath.Join(dir, TransactionsFile), func(w io.Writer) error {
		return EncodeTransactions(w, txs...)
	})
	if err != nil {
		return err
	}
	pending[TransactionsFile] = tmp
	tmp, err = writeTemp(filepath.Join(dir, MatchesFile), func(w io.Writer) error {
		return EncodeMatches(w, matches...)
	})
	if err != nil {
		return err
	}
	pending[MatchesFile] = tmp

	tmp, err = writeTemp(filepath.Join(dir, commitFile), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(pending)
	})
	if err != nil {
		return err
	}
	if err := os.Rename(filepath.Join(dir, tmp), filepath.Join(dir, commitFile)); err != nil {
		os.Remove(filepath.Join(dir, tmp))
		return err
	}
	committed = true
	return completeSave(dir)
}

// completeSave renames into place the files listed by the commit file of dir,
// if any, then removes it.
func completeSave(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, commitFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	var pending map[string]string
	if err := json.Unmarshal(data, &pending); err != nil {
		return fmt.Errorf("%s: %w", filepath.Join(dir, commitFile), err)
	}
	for _, name := range []string{TransactionsFile, MatchesFile} {
		tmp, ok := pending[name]
		if !ok {
			continue
		}
		err := os.Rename(filepath.Join(dir, filepath.Base(tmp)), filepath.Join(dir, name))
		// A missing temporary file was renamed by an earlier attempt.
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not complete the save of %s: %w", name, err)
		}
	}
	return os.Remove(filepath.Join(dir, commitFile))
}

// writeTemp writes a temporary file next to filename and returns its base name.
func writeTemp(filename string, write func(w io.Writer) error) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*")
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Base(f.Name()), nil
}
