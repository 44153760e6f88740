// Package filestore is the core orchestrator of the content store.
//
// It composes the blob backend, the metadata catalog, the media inspector
// and the variant cache into the upload / read / list / delete lifecycle.
// All operations are owner-scoped.
package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/contentstore/blob"
	"github.com/rise-and-shine/contentstore/catalog"
	"github.com/rise-and-shine/contentstore/logger"
	"github.com/rise-and-shine/contentstore/mediameta"
	"github.com/rise-and-shine/contentstore/pagination"
	"github.com/rise-and-shine/contentstore/sorter"
	"github.com/rise-and-shine/contentstore/val"
	"github.com/rise-and-shine/contentstore/variantcache"
)

// Service implements the file store lifecycle over its collaborators.
// It is safe for concurrent use.
type Service struct {
	cfg       Config
	catalog   catalog.Catalog
	blobs     blob.Store
	extractor *mediameta.Extractor
	variants  *variantcache.Cache
	log       logger.Logger
}

// New creates a file store service.
func New(
	cfg Config,
	cat catalog.Catalog,
	blobs blob.Store,
	variants *variantcache.Cache,
	log logger.Logger,
) *Service {
	cfg.normalize()

	return &Service{
		cfg:       cfg,
		catalog:   cat,
		blobs:     blobs,
		extractor: mediameta.New(),
		variants:  variants,
		log:       log.Named("filestore"),
	}
}

// Upload stores the reader's content, catalogs it and pre-generates
// thumbnails for images.
//
// Validation happens before any byte is written: the declared size must not
// exceed the limit and the resolved MIME type must be on the allow-list.
// The actual streamed size is enforced after the write; an oversized stream
// is removed again and rejected. Thumbnail failures surface as warnings on
// the result, never as errors.
func (s *Service) Upload(ctx context.Context, reader io.Reader, input UploadInput) (*UploadResult, error) {
	if input.Folder == "" {
		input.Folder = defaultFolder
	}
	if err := val.ValidateSchema(input); err != nil {
		return nil, errx.Wrap(err)
	}

	typeInfo := s.extractor.Classify(input.Name, input.DeclaredMimeType)
	if !s.mimeAllowed(typeInfo.MimeType) {
		return nil, errx.New(
			fmt.Sprintf("content type %q is not allowed", typeInfo.MimeType),
			errx.WithCode(CodeUnsupportedContentType),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"mime_type": typeInfo.MimeType, "name": input.Name}),
		)
	}
	if input.DeclaredSize > s.cfg.MaxFileSize {
		return nil, s.tooLargeError(input.DeclaredSize)
	}

	id := uuid.NewString()
	storageName := id + typeInfo.Extension
	relPath := path.Join(input.Folder, storageName)

	// One extra byte past the limit is enough to detect an oversized stream
	// without consuming it to the end.
	info, err := s.blobs.Upload(ctx, relPath, io.LimitReader(reader, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if info.Size > s.cfg.MaxFileSize {
		s.cleanupBlob(ctx, relPath)
		return nil, s.tooLargeError(info.Size)
	}

	hash, err := s.hashBlob(ctx, relPath)
	if err != nil {
		s.cleanupBlob(ctx, relPath)
		return nil, errx.Wrap(err)
	}

	var warnings []string

	metadata := s.buildMetadata(ctx, relPath, typeInfo, info.Size, input.Metadata, &warnings)

	rec := &catalog.FileRecord{
		ID:           id,
		OwnerID:      input.OwnerID,
		OriginalName: input.Name,
		StorageName:  storageName,
		RelativePath: relPath,
		MimeType:     typeInfo.MimeType,
		SizeBytes:    info.Size,
		ContentHash:  hash,
		Folder:       input.Folder,
		FolderID:     s.resolveFolderID(ctx, input.OwnerID, input.Folder),
		Status:       catalog.StatusActive,
		Metadata:     metadata,
	}

	rec, err = s.catalog.CreateFile(ctx, rec)
	if err != nil {
		s.cleanupBlob(ctx, relPath)
		return nil, errx.Wrap(err)
	}

	if typeInfo.Category == mediameta.CategoryImage {
		rec = s.generateThumbnails(ctx, rec, &warnings)
	}

	s.log.With(
		"id", rec.ID, "owner_id", rec.OwnerID, "path", rec.RelativePath,
		"size", rec.SizeBytes, "mime_type", rec.MimeType,
	).Info("file stored")

	return &UploadResult{Record: rec, Warnings: warnings}, nil
}

// Get returns the catalog record for a file.
func (s *Service) Get(ctx context.Context, id, ownerID string) (*catalog.FileRecord, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return rec, nil
}

// Open returns the catalog record together with the stored content stream.
// The caller must close OpenResult.Content.
func (s *Service) Open(ctx context.Context, id, ownerID string) (*OpenResult, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	f, err := s.blobs.Get(ctx, rec.RelativePath)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &OpenResult{Record: rec, Content: f.Content}, nil
}

// OpenVariant returns the file's content transformed per the given options,
// served through the variant cache. Non-image files only accept the
// passthrough (zero) options.
func (s *Service) OpenVariant(
	ctx context.Context,
	id, ownerID string,
	opts variantcache.Options,
) (*catalog.FileRecord, []byte, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, nil, errx.Wrap(err)
	}

	if !strings.HasPrefix(rec.MimeType, "image/") && (opts.Width > 0 || opts.Height > 0) {
		return nil, nil, errx.New(
			fmt.Sprintf("content type %q cannot be transformed", rec.MimeType),
			errx.WithCode(CodeUnsupportedContentType),
			errx.WithType(errx.T_Validation),
		)
	}

	data, err := s.variants.Transform(ctx, rec.RelativePath, opts)
	if err != nil {
		return nil, nil, errx.Wrap(err)
	}

	return rec, data, nil
}

// List returns one page of the owner's file records. The sort expression
// uses "field:direction" pairs over created_at, original_name and size_bytes;
// unknown fields are dropped and the default order is newest first.
func (s *Service) List(
	ctx context.Context,
	ownerID string,
	filter catalog.FileFilter,
	page pagination.Request,
	sort string,
) (pagination.Response[catalog.FileRecord], error) {
	page.Normalize()

	order := sorter.
		MakeFromStr(sort, catalog.SortableFileFields()...).
		OrDefault(catalog.DefaultFileOrder()...)

	items, total, err := s.catalog.ListFiles(ctx, ownerID, filter, page.Limit(), page.Offset(), order)
	if err != nil {
		return pagination.Response[catalog.FileRecord]{}, errx.Wrap(err)
	}

	return pagination.NewResponse(items, total, page), nil
}

// Updatable record fields. Anything else in the patch is silently dropped.
const (
	patchOriginalName = "originalName"
	patchMetadata     = "metadata"
	patchFolder       = "folder"
)

// Update applies a partial update to a file record and returns the updated
// record. Only the original name, the metadata map and the folder assignment
// are updatable; moving the folder re-labels the record without moving bytes.
func (s *Service) Update(
	ctx context.Context,
	id, ownerID string,
	patch map[string]any,
) (*catalog.FileRecord, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if v, ok := patch[patchOriginalName]; ok {
		rec.OriginalName = cast.ToString(v)
	}
	if v, ok := patch[patchMetadata]; ok {
		rec.Metadata = mergeMetadata(rec.Metadata, cast.ToStringMap(v))
	}
	if v, ok := patch[patchFolder]; ok {
		rec.Folder = cast.ToString(v)
		rec.FolderID = s.resolveFolderID(ctx, ownerID, rec.Folder)
	}

	rec, err = s.catalog.UpdateFile(ctx, rec)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return rec, nil
}

// Delete removes a file's bytes, its thumbnails and its catalog record, in
// that order. It reports whether anything was deleted; deleting a missing
// file is not an error.
func (s *Service) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		if errx.IsCodeIn(err, catalog.CodeFileNotFound) {
			return false, nil
		}
		return false, errx.Wrap(err)
	}

	if err := s.blobs.Delete(ctx, rec.RelativePath); err != nil && !errx.IsCodeIn(err, blob.CodeFileNotFound) {
		return false, errx.Wrap(err)
	}

	for size, thumbPath := range rec.Thumbnails() {
		err := s.blobs.Delete(ctx, thumbPath)
		if err != nil && !errx.IsCodeIn(err, blob.CodeFileNotFound) {
			s.log.Warnf("thumbnail %s not removed: %v", size, err)
		}
	}

	deleted, err := s.catalog.DeleteFile(ctx, id, ownerID)
	if err != nil {
		return false, errx.Wrap(err)
	}

	s.log.With("id", id, "owner_id", ownerID, "path", rec.RelativePath).Info("file deleted")

	return deleted, nil
}

// Verify recomputes the SHA-256 digest of the stored bytes and compares it
// with the cataloged one. A mismatch is a false return, not an error.
func (s *Service) Verify(ctx context.Context, id, ownerID string) (bool, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return false, errx.Wrap(err)
	}

	actual, err := s.hashBlob(ctx, rec.RelativePath)
	if err != nil {
		return false, errx.Wrap(err)
	}

	return actual == rec.ContentHash, nil
}

// Archive moves an active file record to the archived state. Archiving an
// already archived file is a no-op.
func (s *Service) Archive(ctx context.Context, id, ownerID string) (*catalog.FileRecord, error) {
	rec, err := s.catalog.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if rec.Status == catalog.StatusArchived {
		return rec, nil
	}

	rec.Status = catalog.StatusArchived

	rec, err = s.catalog.UpdateFile(ctx, rec)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return rec, nil
}

// CreateFolder creates a folder under the given parent (root when nil) and
// materializes its path from the parent chain. The physical directory is
// created eagerly on backends that have one.
func (s *Service) CreateFolder(
	ctx context.Context,
	ownerID, name string,
	parentID *string,
) (*catalog.Folder, error) {
	folderPath := name
	if parentID != nil {
		parent, err := s.catalog.GetFolder(ctx, *parentID, ownerID)
		if err != nil {
			return nil, errx.Wrap(err)
		}
		folderPath = parent.Path + "/" + name
	}

	folder := &catalog.Folder{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           name,
		ParentFolderID: parentID,
		Path:           folderPath,
		Status:         catalog.StatusActive,
	}

	folder, err := s.catalog.CreateFolder(ctx, folder)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if err := s.blobs.EnsureDir(ctx, folderPath); err != nil {
		s.log.Warnf("folder directory %s not created: %v", folderPath, err)
	}

	return folder, nil
}

// ListFolders returns the owner's folders directly under the given parent,
// root folders when parentID is nil, sorted by name.
func (s *Service) ListFolders(ctx context.Context, ownerID string, parentID *string) ([]catalog.Folder, error) {
	folders, err := s.catalog.ListFolders(ctx, ownerID, parentID)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return folders, nil
}

func (s *Service) mimeAllowed(mimeType string) bool {
	for _, allowed := range s.cfg.AllowedMimeTypes {
		if strings.HasSuffix(allowed, "/") {
			if strings.HasPrefix(mimeType, allowed) {
				return true
			}
			continue
		}
		if mimeType == allowed {
			return true
		}
	}
	return false
}

func (s *Service) tooLargeError(size int64) error {
	return errx.New(
		fmt.Sprintf("file size %d exceeds the limit of %d bytes", size, s.cfg.MaxFileSize),
		errx.WithCode(CodeFileTooLarge),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"size": size, "max_size": s.cfg.MaxFileSize}),
	)
}

func (s *Service) hashBlob(ctx context.Context, relPath string) (string, error) {
	f, err := s.blobs.Get(ctx, relPath)
	if err != nil {
		return "", errx.Wrap(err)
	}
	defer f.Content.Close()

	return s.extractor.HashReader(f.Content)
}

// buildMetadata merges caller metadata with extracted technical metadata.
// Extracted keys win over caller keys of the same name.
func (s *Service) buildMetadata(
	ctx context.Context,
	relPath string,
	typeInfo mediameta.TypeInfo,
	size int64,
	callerMeta map[string]any,
	warnings *[]string,
) map[string]any {
	metadata := make(map[string]any, len(callerMeta)+4)
	for k, v := range callerMeta {
		metadata[k] = v
	}

	metadata[mediameta.KeySizeBytes] = size
	metadata["category"] = string(typeInfo.Category)

	if typeInfo.Category == mediameta.CategoryImage {
		f, err := s.blobs.Get(ctx, relPath)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("image metadata: %v", err))
			return metadata
		}
		defer f.Content.Close()

		imageMeta, err := s.extractor.ExtractImage(f.Content)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("image metadata: %v", err))
			return metadata
		}
		for k, v := range imageMeta {
			metadata[k] = v
		}
	}

	return metadata
}

// generateThumbnails renders each configured thumbnail size through the
// variant cache and stores the results next to the source under a
// thumbnails/ prefix. Every failure becomes a warning; the record is
// returned unchanged when nothing succeeded.
func (s *Service) generateThumbnails(
	ctx context.Context,
	rec *catalog.FileRecord,
	warnings *[]string,
) *catalog.FileRecord {
	thumbs := make(map[string]string, len(s.cfg.ThumbnailSizes))

	for _, size := range s.cfg.ThumbnailSizes {
		data, err := s.variants.Transform(ctx, rec.RelativePath, variantcache.Options{
			Width:  size,
			Height: size,
			Format: thumbnailFormat(rec.MimeType),
		})
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("thumbnail %d: %v", size, err))
			continue
		}

		thumbPath := path.Join(rec.Folder, "thumbnails", fmt.Sprintf("%d_%s", size, rec.StorageName))
		if _, err := s.blobs.Upload(ctx, thumbPath, bytes.NewReader(data)); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("thumbnail %d: %v", size, err))
			continue
		}

		thumbs[strconv.Itoa(size)] = thumbPath
	}

	if len(thumbs) == 0 {
		return rec
	}

	if rec.Metadata == nil {
		rec.Metadata = make(map[string]any, 1)
	}
	rec.Metadata[catalog.MetaKeyThumbnails] = thumbs

	updated, err := s.catalog.UpdateFile(ctx, rec)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("thumbnail paths not recorded: %v", err))
		return rec
	}
	return updated
}

// thumbnailFormat keeps PNG sources as PNG so transparency survives;
// everything else renders as JPEG.
func thumbnailFormat(mimeType string) string {
	if mimeType == mediameta.ContentTypePNG {
		return "png"
	}
	return "jpeg"
}

// resolveFolderID matches a folder path to an existing folder record for the
// owner. Files may live under paths with no folder record; the ID stays
// empty then.
func (s *Service) resolveFolderID(ctx context.Context, ownerID, folderPath string) string {
	folders, err := s.catalog.ListAllFolders(ctx, ownerID)
	if err != nil {
		s.log.Warnf("folder lookup for %s: %v", folderPath, err)
		return ""
	}

	folder, found := lo.Find(folders, func(f catalog.Folder) bool {
		return f.Path == folderPath
	})
	if !found {
		return ""
	}
	return folder.ID
}

func (s *Service) cleanupBlob(ctx context.Context, relPath string) {
	if err := s.blobs.Delete(ctx, relPath); err != nil && !errx.IsCodeIn(err, blob.CodeFileNotFound) {
		s.log.Warnf("orphaned blob %s not removed: %v", relPath, err)
	}
}

func mergeMetadata(current, patch map[string]any) map[string]any {
	if current == nil {
		current = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		current[k] = v
	}
	return current
}
