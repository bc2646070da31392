package object

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pixvault/pixvault/internal/storage"
)

// lockStripes is the size of the mover's fixed lock pool. fileIDs hash onto
// stripes, so two distinct files may share a lock: collisions only add
// contention, never incorrectness, and the pool stays bounded no matter how
// many files are in flight.
const lockStripes = 10

// fileSystem is the slice of the object store the mover needs.
type fileSystem interface {
	Exists(ctx context.Context, fileID, folder string) (bool, error)
	Copy(ctx context.Context, fileID, srcFolder, destFolder string) (string, error)
	Delete(ctx context.Context, fileID, folder string) error
}

// MoveFile identifies one object to promote and the hash it must still have
// once promoted. The hash was captured when metadata was recorded, not
// recomputed from the source: the verification exists to catch an overwrite
// of the temporary object between metadata recording and the copy.
type MoveFile struct {
	FileID       string
	ExpectedHash string
}

// Mover owns the temporary-to-permanent migration protocol: per-file
// locking, destination pre-check, server-side copy, hash verification and
// rollback. All its failures are terminal for the file in question.
type Mover struct {
	fs    fileSystem
	locks [lockStripes]sync.Mutex
}

func NewMover(fs fileSystem) *Mover {
	return &Mover{fs: fs}
}

func (m *Mover) lockFor(fileID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(fileID))

	return &m.locks[h.Sum32()%lockStripes]
}

// MoveToPermanent promotes one object from temporary to permanent storage,
// guaranteeing the object that becomes permanent matches expectedHash even
// if the temporary object was overwritten mid-flight. On a hash mismatch
// the destination object is deleted and storage.ErrHashMismatch returned;
// the caller must not record metadata for this file.
func (m *Mover) MoveToPermanent(ctx context.Context, fileID, expectedHash string) error {
	mu := m.lockFor(fileID)
	mu.Lock()
	defer mu.Unlock()

	exists, err := m.fs.Exists(ctx, fileID, Permanent)
	if err != nil {
		return fmt.Errorf("move %s: %w", fileID, err)
	}
	if exists {
		return fmt.Errorf("move %s: %w", fileID, storage.ErrObjectAlreadyExists)
	}

	movedHash, err := m.fs.Copy(ctx, fileID, Temporary, Permanent)
	if err != nil {
		return fmt.Errorf("move %s: %w", fileID, err)
	}

	if movedHash != expectedHash {
		if delErr := m.fs.Delete(ctx, fileID, Permanent); delErr != nil {
			return fmt.Errorf("move %s: rollback after hash mismatch failed: %w", fileID, delErr)
		}
		return fmt.Errorf("move %s: %w", fileID, storage.ErrHashMismatch)
	}

	return nil
}

// MoveAllToPermanent promotes a batch in parallel, each file independently
// locked and rolled back. A failed file never rolls back siblings already
// committed to permanent storage; the joined error aborts the caller's
// metadata write for the whole batch.
func (m *Mover) MoveAllToPermanent(ctx context.Context, files []MoveFile) error {
	p := pool.New().WithErrors().WithContext(ctx)

	for _, f := range files {
		p.Go(func(ctx context.Context) error {
			return m.MoveToPermanent(ctx, f.FileID, f.ExpectedHash)
		})
	}

	return p.Wait()
}
