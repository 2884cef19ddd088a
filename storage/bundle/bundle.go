// Package bundle moves envelopes between stores as a deterministic TAR
// archive: one entry per envelope under envelopes/<cid>, plus an
// optional index.json naming them.
package bundle

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/vdxf/cidutil"
	"xdao.co/vdxf/storage"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	entryPrefix = "envelopes/"
	indexName   = "index.json"
)

var epoch0 = time.Unix(0, 0).UTC()

type ExportOptions struct {
	// Labels optionally names envelopes, e.g. "login" -> CID. Labels are
	// written to the index and are not authoritative.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is written.
	IncludeIndex bool
}

type Index struct {
	Version   int     `json:"version"`
	CIDCodec  string  `json:"cidCodec"`
	Multihash string  `json:"multihash"`
	Entries   []Entry `json:"entries"`
	Labels    []Label `json:"labels,omitempty"`
}

type Entry struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type Label struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

// Export writes the envelopes ids name, read from s, to w. Entries are
// sorted by CID and TAR headers carry no time or owner, so the same set
// always yields the same bytes.
func Export(ctx context.Context, w io.Writer, s storage.Store, ids []cid.Cid, opts ExportOptions) error {
	if s == nil {
		return fmt.Errorf("bundle: nil store")
	}
	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tar.NewWriter(w)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		b, err := s.Get(ctx, uniq[name])
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", name, err)
		}
		if err := writeFile(tw, entryPrefix+name, b); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, Entry{CID: name, Size: len(b)})
	}

	if opts.IncludeIndex {
		idx := Index{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			Entries:   entries,
		}
		labels := make([]string, 0, len(opts.Labels))
		for k := range opts.Labels {
			labels = append(labels, k)
		}
		slices.Sort(labels)
		for _, k := range labels {
			if k == "" {
				_ = tw.Close()
				return fmt.Errorf("bundle: empty label")
			}
			id := opts.Labels[k]
			if _, ok := uniq[id.String()]; !ok || !id.Defined() {
				_ = tw.Close()
				return fmt.Errorf("bundle: label %q names an envelope outside the bundle", k)
			}
			idx.Labels = append(idx.Labels, Label{Name: k, CID: id.String()})
		}
		b, err := json.Marshal(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, indexName, append(b, '\n')); err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

type ImportOptions struct {
	// IgnoreUnknown skips unknown entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r into s and returns the imported CIDs in
// archive order, with the index if one was present. Each entry must hash
// to the CID it is named after; wrap s in storage.Envelopes to also
// reject entries that are not envelopes.
func Import(ctx context.Context, r io.Reader, s storage.Store, opts ImportOptions) ([]cid.Cid, *Index, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("bundle: nil store")
	}
	tr := tar.NewReader(r)
	seen := map[cid.Cid]struct{}{}
	var (
		out []cid.Cid
		idx *Index
	)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return out, idx, nil
		}
		if err != nil {
			return out, idx, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, idx, fmt.Errorf("bundle: invalid entry path %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, idx, fmt.Errorf("bundle: unexpected entry type %v (%s)", h.Typeflag, name)
		}

		if name == indexName {
			idx = new(Index)
			if err := json.NewDecoder(tr).Decode(idx); err != nil {
				return out, nil, fmt.Errorf("bundle: index: %w", err)
			}
			continue
		}
		if !strings.HasPrefix(name, entryPrefix) {
			if opts.IgnoreUnknown {
				continue
			}
			return out, idx, fmt.Errorf("bundle: unknown entry %s", name)
		}

		id, err := cid.Decode(strings.TrimPrefix(name, entryPrefix))
		if err != nil || !id.Defined() {
			return out, idx, storage.ErrInvalidCID
		}
		if _, ok := seen[id]; ok {
			return out, idx, fmt.Errorf("bundle: duplicate entry %s", id)
		}
		seen[id] = struct{}{}

		b, err := io.ReadAll(tr)
		if err != nil {
			return out, idx, err
		}
		got, err := cidutil.Of(b)
		if err != nil {
			return out, idx, err
		}
		if got != id {
			return out, idx, storage.ErrCIDMismatch
		}
		put, err := s.Put(ctx, b)
		if err != nil {
			return out, idx, fmt.Errorf("bundle: %s: %w", id, err)
		}
		if put != id {
			return out, idx, storage.ErrCIDMismatch
		}
		out = append(out, id)
	}
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// cleanTarPath normalizes name and returns "" for absolute, empty or
// parent-relative paths.
func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	if name == "" || strings.HasPrefix(name, "/") {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
