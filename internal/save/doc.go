// Package save persists batch output to the local file system.
//
// A save goes through three pieces:
//
//   - Blob: a temporary file staged from in-memory bytes right before the
//     save and released exactly once afterwards.
//   - Saver: the destination. DiskSaver copies staged files into a
//     directory and, for the direct strategy, streams URLs straight to disk.
//   - Persister: wraps every save with a timeout guard and panic recovery,
//     turning any failure into *SaveError.
//
// # Basic Usage
//
//	saver := save.NewDiskSaver("/downloads", true, client)
//	persister := save.NewPersister(saver, 30*time.Second)
//
//	path, err := persister.Save(ctx, "photos.zip", data)
//	if err != nil {
//	    var saveErr *save.SaveError
//	    if errors.As(err, &saveErr) && saveErr.Timeout() {
//	        // the saver did not finish in time
//	    }
//	}
package save
