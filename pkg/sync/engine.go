// Package sync reconciles local photo-documentation sessions with their
// cloud copies in the remote blob store.
//
// The remote layout per user is:
//
//	sessions/<userId>/<sessionId>/metadata.json
//	sessions/<userId>/<sessionId>/images/<sessionId>_img<N>.jpg
//
// The cloud copy is authoritative once uploaded; local state is a cache and
// staging area. There is a single writer (the device owner), so the engine
// does no cross-device conflict resolution.
package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/nextserve/oralvis-sync/pkg/identity"
	"github.com/nextserve/oralvis-sync/pkg/imagecache"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/nextserve/oralvis-sync/pkg/models"
	"github.com/nextserve/oralvis-sync/pkg/storage"
)

const (
	remoteRootPrefix = "sessions"
	metadataFileName = "metadata.json"
	imagesFolderName = "images"
)

var (
	// ErrNotAuthenticated indicates no valid identity was supplied.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoImages indicates a session has no images where some were required.
	ErrNoImages = errors.New("no images found")
)

// ProgressEvent is one step of an upload's progress stream.
// Percent is 0..100 and never decreases within a single upload.
type ProgressEvent struct {
	Percent int
	Message string
}

// Engine orchestrates uploads, remote listings, and on-demand
// materialization of remote images into the local cache.
//
// The engine holds no session state of its own and takes the caller's
// identity on every call. It provides no per-session locking: callers are
// expected to keep at most one upload in flight per session id (two
// concurrent uploads of the same session may interleave blob writes).
type Engine struct {
	blobs storage.BlobStore
	cache *imagecache.Cache
}

// New creates an engine over the given blob store and local image cache.
func New(blobs storage.BlobStore, cache *imagecache.Cache) *Engine {
	return &Engine{
		blobs: blobs,
		cache: cache,
	}
}

// sessionKey returns the remote folder key for a session, without trailing slash.
func sessionKey(userID, sessionID string) string {
	return remoteRootPrefix + "/" + userID + "/" + sessionID
}

// Upload writes a session's metadata and images to the user's remote
// namespace, reporting progress on the given channel (nil is allowed).
//
// Blob names are deterministic (metadata.json and <sessionId>_img<N>.jpg in
// input order), so a retried upload overwrites its previous partial state
// rather than duplicating it. The call is not atomic across the session: any
// single write failure aborts the upload and leaves earlier blobs in place.
//
// An empty image list is legal and uploads only metadata. Cancellation is
// honored between blob operations.
func (e *Engine) Upload(ctx context.Context, user identity.Identity, rec models.SessionRecord, imagePaths []string, progress chan<- ProgressEvent) error {
	if !user.Valid() {
		return ErrNotAuthenticated
	}

	root := sessionKey(user.UserID, rec.SessionID)
	logger.Info("Starting upload: session=%s images=%d", rec.SessionID, len(imagePaths))

	emit(progress, 5, "Preparing upload...")

	data, err := models.MarshalMetadata(rec)
	if err != nil {
		return err
	}
	if err := e.blobs.WriteBytes(ctx, root+"/"+metadataFileName, data); err != nil {
		return fmt.Errorf("metadata upload failed: %w", err)
	}

	emit(progress, 10, "Metadata uploaded")

	total := len(imagePaths)
	for i, img := range imagePaths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload cancelled: %w", err)
		}

		name := fmt.Sprintf("%s_img%d.jpg", rec.SessionID, i+1)
		emit(progress, 10+(i*80)/total, fmt.Sprintf("Uploading image %d/%d: %s", i+1, total, name))

		key := root + "/" + imagesFolderName + "/" + name
		if err := e.blobs.WriteFile(ctx, key, img); err != nil {
			return fmt.Errorf("image %d/%d upload failed: %w", i+1, total, err)
		}

		emit(progress, 10+((i+1)*80)/total, fmt.Sprintf("Uploaded %d/%d images", i+1, total))
		logger.Debug("Uploaded image: key=%s source=%s", key, img)
	}

	emit(progress, 100, "Upload complete")
	logger.Info("Upload complete: session=%s", rec.SessionID)
	return nil
}

// ListRemoteSessions returns a summary for every session in the user's
// remote namespace by fetching only each session's metadata blob.
//
// The listing never fails to the caller: a transport error yields an empty
// result, and a session folder with missing or corrupt metadata is skipped
// so one bad session cannot blank the whole list.
func (e *Engine) ListRemoteSessions(ctx context.Context, user identity.Identity) []models.RemoteSessionSummary {
	if !user.Valid() {
		logger.Warn("Remote listing requested without identity")
		return nil
	}

	userPrefix := remoteRootPrefix + "/" + user.UserID + "/"
	listing, err := e.blobs.ListChildren(ctx, userPrefix)
	if err != nil {
		logger.Error("Failed to list remote sessions: %v", err)
		return nil
	}

	var summaries []models.RemoteSessionSummary
	for _, folder := range listing.Prefixes {
		data, err := e.blobs.ReadBytes(ctx, folder+metadataFileName)
		if err != nil {
			logger.Warn("Skipping remote session without readable metadata: folder=%s error=%v", folder, err)
			continue
		}

		rec, err := models.UnmarshalMetadata(data)
		if err != nil {
			logger.Warn("Skipping remote session with corrupt metadata: folder=%s error=%v", folder, err)
			continue
		}

		summaries = append(summaries, models.RemoteSessionSummary{
			SessionID:       rec.SessionID,
			Name:            rec.Name,
			Age:             rec.Age,
			CreatedAt:       rec.CreatedAt,
			RemoteFolderKey: strings.TrimSuffix(folder, "/"),
		})
	}

	logger.Info("Remote listing: user=%s sessions=%d", user.UserID, len(summaries))
	return summaries
}

// MaterializeImages downloads a session's remote images into the local
// cache, preserving the remote blob names. It is idempotent and safe to call
// when local images already exist (existing files are overwritten by name).
//
// Zero remote images is a failure; a non-empty partial set is success.
func (e *Engine) MaterializeImages(ctx context.Context, user identity.Identity, sessionID string) error {
	if !user.Valid() {
		return ErrNotAuthenticated
	}

	dir, err := e.cache.EnsureDir(sessionID)
	if err != nil {
		return err
	}

	root := sessionKey(user.UserID, sessionID)
	imagesPrefix := root + "/" + imagesFolderName + "/"

	listing, err := e.blobs.ListChildren(ctx, imagesPrefix)
	if err != nil {
		// Some backends won't enumerate the images prefix directly; locate
		// it by name through the parent session folder before giving up.
		logger.Warn("Images prefix not listable, trying parent folder: session=%s error=%v", sessionID, err)
		listing, err = e.listImagesViaParent(ctx, root, err)
		if err != nil {
			return err
		}
	}

	if len(listing.Objects) == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNoImages)
	}

	for _, key := range listing.Objects {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("materialization cancelled: %w", err)
		}

		localPath := filepath.Join(dir, path.Base(key))
		if err := e.blobs.ReadFile(ctx, key, localPath); err != nil {
			return fmt.Errorf("failed to download %s: %w", path.Base(key), err)
		}
		logger.Debug("Materialized image: key=%s path=%s", key, localPath)
	}

	logger.Info("Materialized session images: session=%s count=%d", sessionID, len(listing.Objects))
	return nil
}

// listImagesViaParent lists the parent session folder and descends into its
// "images" child. Returns listErr when the child can't be found either.
func (e *Engine) listImagesViaParent(ctx context.Context, root string, listErr error) (storage.Listing, error) {
	parent, err := e.blobs.ListChildren(ctx, root+"/")
	if err != nil {
		return storage.Listing{}, listErr
	}

	for _, p := range parent.Prefixes {
		if path.Base(strings.TrimSuffix(p, "/")) == imagesFolderName {
			listing, err := e.blobs.ListChildren(ctx, p)
			if err != nil {
				return storage.Listing{}, fmt.Errorf("failed to list images folder: %w", err)
			}
			return listing, nil
		}
	}

	return storage.Listing{}, listErr
}

// ResolveImages is the read path for displaying a session.
//
// A non-empty local directory is used as-is, with no remote check. Only a
// fully empty or absent directory triggers materialization: a partially
// deleted local set will not self-heal from remote; that threshold is
// deliberate and must not be tightened to a count comparison.
func (e *Engine) ResolveImages(ctx context.Context, user identity.Identity, sessionID string) ([]string, error) {
	images, err := e.cache.ListImages(sessionID)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		return images, nil
	}

	if err := e.MaterializeImages(ctx, user, sessionID); err != nil {
		return nil, err
	}

	images, err = e.cache.ListImages(sessionID)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNoImages)
	}
	return images, nil
}

func emit(progress chan<- ProgressEvent, percent int, message string) {
	if progress == nil {
		return
	}
	progress <- ProgressEvent{Percent: percent, Message: message}
}
