// Package source implements the filesystem SourceIterator (spec.md §4.4):
// pulling notifications out of one stream group's files in order, crossing
// file boundaries transparently. Grounded on the reference fs.c's
// ctf_fs_iterator_next / ds_file_group switch-to-next-file logic.
package source

import (
	"context"
	"io"
	"sync"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/group"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// Iterator pulls notifications out of a group.Group's files in the group's
// order, opening each file lazily and moving to the next one transparently
// when the current file is exhausted (spec.md §4.4: "the caller never sees
// a file boundary").
type Iterator struct {
	trace     *schema.Trace
	group     *group.Group
	factory   ctfio.StreamFileReaderFactory
	logger    *component.Logger
	canonical *schema.Stream

	mu     sync.Mutex
	fileAt int
	reader ctfio.StreamFileReader
}

// NewIterator returns an iterator over g's files, not yet opened. Every
// file in a group describes the same logical stream, but each
// ctfio.StreamFileReader mints its own *schema.Stream when it opens a file;
// the iterator rewrites every notification's Packet.Stream to one
// group-wide canonical *schema.Stream so the sink's identity-keyed maps see
// one stream across a file boundary, not one per file (spec.md §4.3/§4.6).
func NewIterator(trace *schema.Trace, g *group.Group, factory ctfio.StreamFileReaderFactory, logger *component.Logger) *Iterator {
	return &Iterator{
		trace:     trace,
		group:     g,
		factory:   factory,
		logger:    logger,
		canonical: &schema.Stream{Class: g.StreamClass, InstanceID: g.InstanceID},
	}
}

// Next returns the next notification, opening and closing underlying files
// as needed. Returns io.EOF once every file in the group is exhausted.
func (it *Iterator) Next(ctx context.Context) (notif.Notification, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return notif.Notification{}, err
	}

	for {
		freshOpen := false
		if it.reader == nil {
			if it.fileAt >= len(it.group.Files) {
				return notif.Notification{}, io.EOF
			}
			path := it.group.Files[it.fileAt].Path
			r, err := it.factory.Open(it.trace, path)
			if err != nil {
				return notif.Notification{}, errors.WrapInvalid(err, "source", "Iterator.Next", path)
			}
			it.reader = r
			freshOpen = true
		}

		n, err := it.reader.Next(ctx)
		if err == io.EOF {
			if closeErr := it.reader.Close(); closeErr != nil && it.logger != nil {
				it.logger.Warn("closing exhausted stream file", "error", closeErr)
			}
			it.reader = nil
			if freshOpen {
				return notif.Notification{}, errors.WrapFatal(errors.ErrFreshFileYieldedEnd, "source", "Iterator.Next", it.group.Files[it.fileAt].Path)
			}
			it.fileAt++
			continue
		}
		if err != nil {
			return notif.Notification{}, errors.WrapInvalid(err, "source", "Iterator.Next", "")
		}
		if n.Packet != nil {
			n.Packet.Stream = it.canonical
		}
		return n, nil
	}
}

// Finalize releases the iterator's currently open file, if any. Safe to
// call multiple times.
func (it *Iterator) Finalize() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.reader == nil {
		return nil
	}
	err := it.reader.Close()
	it.reader = nil
	return err
}
