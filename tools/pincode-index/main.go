// Command pincode-index is an offline preprocessing utility for the
// all-India pincode boundary GeoJSON. "build" converts the feature
// collection into sorted NDJSON plus a pincode-to-byte-offset index,
// skipping the rebuild when the source hash is unchanged. "extract"
// pulls individual pincode features out through the index without
// loading the whole dataset.
//
// Unrelated to the live polling pipeline; run it only when the source
// boundary file changes.
package main

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type paths struct {
	src    string
	ndjson string
	index  string
	hash   string
	dist   string
}

func defaultPaths(dataDir string) paths {
	return paths{
		src:    filepath.Join(dataDir, "All_India_pincode_Boundary-cleaned.geojson"),
		ndjson: filepath.Join(dataDir, "pincodes.ndjson"),
		index:  filepath.Join(dataDir, "pincode_index.json"),
		hash:   filepath.Join(dataDir, "pincode_hash.txt"),
		dist:   "dist",
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pincode-index <build|extract> [args]")
		os.Exit(1)
	}

	p := defaultPaths("data")
	var err error
	switch os.Args[1] {
	case "build":
		err = build(p)
	case "extract":
		if len(os.Args) < 3 {
			err = fmt.Errorf("extract requires at least one pincode")
		} else {
			err = extract(p, os.Args[2:])
		}
	default:
		err = fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

type feature struct {
	raw     json.RawMessage
	pincode string
}

func build(p paths) error {
	srcHash, err := fileHash(p.src)
	if err != nil {
		return fmt.Errorf("hashing source: %w", err)
	}

	if prev, err := os.ReadFile(p.hash); err == nil &&
		strings.TrimSpace(string(prev)) == srcHash &&
		exists(p.ndjson) && exists(p.index) {
		fmt.Println("index up-to-date, skipping rebuild")
		return nil
	}

	data, err := os.ReadFile(p.src)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing source geojson: %w", err)
	}

	feats := make([]feature, 0, len(fc.Features))
	for _, raw := range fc.Features {
		var meta struct {
			Properties map[string]any `json:"properties"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}
		pin := strings.TrimSpace(fmt.Sprintf("%v", meta.Properties["Pincode"]))
		if pin == "" || pin == "<nil>" {
			continue
		}
		feats = append(feats, feature{raw: raw, pincode: pin})
	}

	// Sorted by pincode for stable offsets.
	sort.Slice(feats, func(i, j int) bool { return feats[i].pincode < feats[j].pincode })

	out, err := os.Create(p.ndjson)
	if err != nil {
		return fmt.Errorf("creating ndjson: %w", err)
	}
	defer out.Close()

	index := make(map[string]int64, len(feats))
	var offset int64
	w := bufio.NewWriter(out)
	for _, f := range feats {
		line := append(compactJSON(f.raw), '\n')
		index[f.pincode] = offset
		n, err := w.Write(line)
		if err != nil {
			return fmt.Errorf("writing ndjson: %w", err)
		}
		offset += int64(n)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing ndjson: %w", err)
	}

	idxData, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	if err := os.WriteFile(p.index, idxData, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.WriteFile(p.hash, []byte(srcHash), 0o644); err != nil {
		return fmt.Errorf("writing hash: %w", err)
	}

	fmt.Printf("wrote %s and %s, features indexed: %d\n", p.ndjson, p.index, len(index))
	return nil
}

func extract(p paths, pins []string) error {
	idxData, err := os.ReadFile(p.index)
	if err != nil {
		return fmt.Errorf("index missing, run build first: %w", err)
	}
	var index map[string]int64
	if err := json.Unmarshal(idxData, &index); err != nil {
		return fmt.Errorf("parsing index: %w", err)
	}

	if err := os.MkdirAll(p.dist, 0o755); err != nil {
		return fmt.Errorf("creating dist dir: %w", err)
	}

	var found []string
	for _, pin := range pins {
		pin = strings.TrimSpace(pin)
		off, ok := index[pin]
		if !ok {
			fmt.Fprintf(os.Stderr, "WARNING: pincode %s not in index\n", pin)
			continue
		}

		line, err := readLineAt(p.ndjson, off)
		if err != nil {
			return fmt.Errorf("reading feature for %s: %w", pin, err)
		}

		dst := filepath.Join(p.dist, "pincode_"+pin+".geojson")
		if err := os.WriteFile(dst, line, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		found = append(found, pin)
	}

	if len(found) == 0 {
		return fmt.Errorf("none of the requested pincodes were found")
	}
	fmt.Println("extracted:", strings.Join(found, ","))
	return nil
}

func readLineAt(path string, offset int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return []byte(strings.TrimRight(string(line), "\n")), nil
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
