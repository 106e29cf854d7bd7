package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docshelf/internal/mailer"
	"docshelf/internal/model"
	"docshelf/internal/repository"
	"docshelf/internal/storage"
)

var (
	ErrIDRequired          = errors.New("id is required")
	ErrNotFound            = errors.New("record not found")
	ErrReaderNil           = errors.New("reader is nil")
	ErrForbidden           = errors.New("operation not permitted")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyBatch          = errors.New("no files provided")
)

// allowedExtensions is the accepted file-type allow-list; comparison is
// case-insensitive on the extension after the last dot.
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".xls":  {},
	".xlsx": {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

const downloadURLExpiry = 15 * time.Minute

// FileUpload carries one uploaded file's content and metadata into the service.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadInput is the full set of fields for a single document upload.
// Title defaults to the filename when empty.
type UploadInput struct {
	File        FileUpload
	Title       string
	Description string
	CategoryID  *string
	OwnerID     string
	IsPrivate   bool
}

// UploadFailure records one file that could not be uploaded during a batch.
type UploadFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchUploadResult is the aggregate outcome of a batch upload. It is
// transient: partial failure is reported here, never as an error.
type BatchUploadResult struct {
	Uploaded int             `json:"uploaded"`
	Failures []UploadFailure `json:"failures"`
}

// DashboardSummary holds the four per-owner aggregates shown on the dashboard.
type DashboardSummary struct {
	TotalDocuments   int `json:"total_documents"`
	TotalCategories  int `json:"total_categories"`
	RecentUploads    int `json:"recent_uploads"`
	PrivateDocuments int `json:"private_documents"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the file type, saves metadata to DB, uploads the
	// content to object storage (rolling the record back if the write fails),
	// and sends an upload notification. Notification failure never fails the upload.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// BatchUpload creates one document per file, sharing category, privacy
	// and owner. Files are processed in order; one bad file never aborts the
	// batch. An empty file list is the only error case.
	BatchUpload(ctx context.Context, files []FileUpload, categoryID *string, isPrivate bool, ownerID string) (*BatchUploadResult, error)

	// Get returns a single document by its ID. A private document is only
	// visible to its owner.
	Get(ctx context.Context, id, requesterID string) (*model.Document, error)

	// Delete removes a document's blob (best effort) and record. Only the
	// owner may delete.
	Delete(ctx context.Context, id, requesterID string) error

	// ListVisible returns documents visible to the requester, optionally
	// filtered by search text and category name.
	ListVisible(ctx context.Context, requesterID, search, categoryName string) ([]model.Document, error)

	// Summary returns the requester's dashboard aggregates.
	Summary(ctx context.Context, requesterID string) (*DashboardSummary, error)

	// PresignDownload returns a time-limited download URL for a visible document.
	PresignDownload(ctx context.Context, id, requesterID string) (string, error)

	// Download streams a visible document's content from object storage.
	// The caller must close the returned reader.
	Download(ctx context.Context, id, requesterID string) (*model.Document, io.ReadCloser, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	mail       mailer.Mailer
	log        *zap.Logger
	siteURL    string
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	mail mailer.Mailer,
	log *zap.Logger,
	siteURL string,
) DocumentService {
	return &documentService{
		store:      store,
		repo:       repo,
		categories: categories,
		users:      users,
		mail:       mail,
		log:        log,
		siteURL:    strings.TrimRight(siteURL, "/"),
	}
}

// ValidateFileType checks the filename's extension against the allow-list.
// The check is case-insensitive and looks only at the part after the last dot.
func ValidateFileType(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return ErrUnsupportedFileType
	}
	return nil
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.File.Reader == nil {
		return nil, ErrReaderNil
	}
	if in.OwnerID == "" {
		return nil, ErrIDRequired
	}
	// Reject disallowed types before touching the database or storage.
	if err := ValidateFileType(in.File.Filename); err != nil {
		return nil, err
	}

	title := in.Title
	if title == "" {
		title = in.File.Filename
	}
	contentType := in.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// The storage key embeds the generated id, so the record is created first
	// and rolled back if the blob write fails.
	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(in.File.Filename))
	key := path.Join(storage.RootDir, id+ext)

	doc := &model.Document{
		ID:          id,
		Title:       title,
		Description: in.Description,
		Filename:    in.File.Filename,
		StoragePath: key,
		Size:        in.File.Size,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
		CategoryID:  in.CategoryID,
		OwnerID:     in.OwnerID,
		IsPrivate:   in.IsPrivate,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	_, err = s.store.Put(ctx, key, in.File.Reader, storage.PutObjectOptions{
		Size:        in.File.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": in.File.Filename,
		},
	})
	if err != nil {
		// Rollback: remove the record so no document points at a missing blob.
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			return nil, fmt.Errorf("upload to storage failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("upload to storage failed: %w", err)
	}

	s.sendUploadNotification(ctx, stored)

	return stored, nil
}

// sendUploadNotification mails the owner about the new document.
// Failures are logged, never returned: a lost mail must not fail an upload.
func (s *documentService) sendUploadNotification(ctx context.Context, doc *model.Document) {
	owner, err := s.users.FindByID(ctx, doc.OwnerID)
	if err != nil {
		s.log.Warn("owner lookup for upload notification failed",
			zap.String("document_id", doc.ID),
			zap.String("owner_id", doc.OwnerID),
			zap.Error(err))
		return
	}
	if owner.Email == "" {
		s.log.Warn("no email address for user, skipping upload notification",
			zap.String("username", owner.Username),
			zap.String("document_id", doc.ID))
		return
	}

	categoryName := "none"
	if doc.CategoryID != nil {
		if cat, catErr := s.categories.FindByID(ctx, *doc.CategoryID); catErr == nil {
			categoryName = cat.Name
		}
	}

	privacy := "Public"
	if doc.IsPrivate {
		privacy = "Private"
	}

	subject := "New Document Uploaded: " + doc.Title
	body := fmt.Sprintf(`Hello %s,

A new document has been uploaded to your account:

Title: %s
Category: %s
Upload Date: %s
Privacy: %s

You can view it on your dashboard at:
%s/documents/%s

Best regards,
Document Management System
`,
		owner.Username,
		doc.Title,
		categoryName,
		doc.UploadedAt.Format("2006-01-02 15:04"),
		privacy,
		s.siteURL,
		doc.ID,
	)

	if err := s.mail.Send([]string{owner.Email}, subject, body); err != nil {
		s.log.Error("upload notification send failed",
			zap.String("document_id", doc.ID),
			zap.String("to", owner.Email),
			zap.Error(err))
		return
	}
	s.log.Info("upload notification sent",
		zap.String("document_id", doc.ID),
		zap.String("to", owner.Email))
}

func (s *documentService) BatchUpload(ctx context.Context, files []FileUpload, categoryID *string, isPrivate bool, ownerID string) (*BatchUploadResult, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	description := fmt.Sprintf("Uploaded as part of batch upload on %s", time.Now().Format("2006-01-02"))

	res := &BatchUploadResult{Failures: make([]UploadFailure, 0)}
	for _, f := range files {
		_, err := s.Upload(ctx, UploadInput{
			File:        f,
			Title:       f.Filename,
			Description: description,
			CategoryID:  categoryID,
			OwnerID:     ownerID,
			IsPrivate:   isPrivate,
		})
		if err != nil {
			res.Failures = append(res.Failures, UploadFailure{Filename: f.Filename, Reason: err.Error()})
			s.log.Warn("batch upload: file failed",
				zap.String("filename", f.Filename),
				zap.Error(err))
			continue
		}
		res.Uploaded++
	}
	return res, nil
}

// Get returns a document by ID, enforcing the privacy rule.
func (s *documentService) Get(ctx context.Context, id, requesterID string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.IsPrivate && doc.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return doc, nil
}

// Delete removes a document. Only the owner may delete; the blob is removed
// best-effort (skipped if absent, logged if the delete fails) before the record.
func (s *documentService) Delete(ctx context.Context, id, requesterID string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if doc.OwnerID != requesterID {
		return ErrForbidden
	}

	exists, err := s.store.Exists(ctx, doc.StoragePath)
	if err != nil {
		s.log.Warn("blob existence check failed, skipping blob delete",
			zap.String("storage_path", doc.StoragePath),
			zap.Error(err))
	} else if exists {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			// Best effort: an orphan blob beats an undeletable document.
			s.log.Error("blob delete failed",
				zap.String("storage_path", doc.StoragePath),
				zap.Error(err))
		}
	}

	return s.repo.Delete(ctx, id)
}

func (s *documentService) ListVisible(ctx context.Context, requesterID, search, categoryName string) ([]model.Document, error) {
	if requesterID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.ListVisible(ctx, repository.VisibilityFilter{
		RequesterID:  requesterID,
		Search:       search,
		CategoryName: categoryName,
	})
}

// Summary runs the four dashboard aggregates as independent scalar queries.
func (s *documentService) Summary(ctx context.Context, requesterID string) (*DashboardSummary, error) {
	if requesterID == "" {
		return nil, ErrIDRequired
	}

	total, err := s.repo.CountByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	categories, err := s.repo.CountDistinctCategoriesByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	since := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := s.repo.CountRecentByOwner(ctx, requesterID, since)
	if err != nil {
		return nil, fmt.Errorf("count recent uploads: %w", err)
	}
	private, err := s.repo.CountPrivateByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("count private documents: %w", err)
	}

	return &DashboardSummary{
		TotalDocuments:   total,
		TotalCategories:  categories,
		RecentUploads:    recent,
		PrivateDocuments: private,
	}, nil
}

// PresignDownload returns a temporary download URL for a document the
// requester may see.
func (s *documentService) PresignDownload(ctx context.Context, id, requesterID string) (string, error) {
	doc, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StoragePath, downloadURLExpiry)
}

// Download streams the blob of a document the requester may see.
func (s *documentService) Download(ctx context.Context, id, requesterID string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read from storage: %w", err)
	}
	return doc, rc, nil
}
