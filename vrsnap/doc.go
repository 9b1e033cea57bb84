// Package vrsnap is a file-backed implementation of vr.CheckpointStore:
// each checkpoint is written as its own CRC32-checksummed file, named by
// op number, saved atomically via a temp-file-then-rename, and read back
// with the checksum reverified before the bytes are trusted. A small
// boltdb database alongside the checkpoint files is the pointer file that
// lets a restarting replica find its latest checkpoint without listing
// the directory.
package vrsnap
