// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

/*
Package rayarc provides a format-independent session layer for Rayman game
archives. Container families implement the Format contract in their own
packages: cnt for OpenSpace .cnt containers and ipk for UbiArt .ipk bundles.
Payloads are streamed; reading, extracting and repacking never load a full
archive into memory.

Every write pass follows one recipe: the format reserves its header, streams
payloads through a FileGenerator while a PayloadCursor assigns offsets, then
seeks back and writes the final header. Files without import keep their
stored bytes as-is.

# Reading

Open an archive with a format manager and read files:

	r, err := rayarc.Open(cnt.NewManager(cnt.Settings{}), "Textures.cnt", rayarc.ReaderOptions{})
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, f := range r.Files() {
	    data, _ := r.ReadFile(f.Path)
	    // use data
	}

Lookups accept either separator and ignore case. Listing can be narrowed:

	files, err := rayarc.ListFiles(ipk.NewManager(ipk.Settings{}), "bundle_pc.ipk", rayarc.ReaderOptions{
	    EntryPathPrefix: "world/maps",
	    MinEntrySize:    1,
	})

# Extracting

Extract writes files in parallel. Names are sanitized unless RawNames is set:

	err := r.Extract(ctx, "out", rayarc.ExtractOptions{MaxWorkers: 4})

# Creating and editing

Create builds a new archive from streams; Editor rewrites an existing one
through a backup file and rolls back on failure:

	ed, err := rayarc.OpenEditor(ipk.NewManager(ipk.Settings{}), "bundle_pc.ipk", rayarc.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	_ = ed.Replace(rayarc.Input{Path: "world/maps/menu.isc", Open: openFile})
	_, err = ed.Commit(ctx)

# Verification

Digests hashes decoded contents; CompareDigests reports differing paths
between two archives or an archive and a directory.
*/
package rayarc
