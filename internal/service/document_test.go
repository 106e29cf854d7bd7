package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"docshelf/internal/model"
	mailMocks "docshelf/internal/mailer/mocks"
	repoMocks "docshelf/internal/repository/mocks"
	"docshelf/internal/repository"
	"docshelf/internal/storage"
	storeMocks "docshelf/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const testSiteURL = "http://docshelf.test"

type serviceMocks struct {
	store *storeMocks.MockStorage
	repo  *repoMocks.MockDocumentRepository
	cats  *repoMocks.MockCategoryRepository
	users *repoMocks.MockUserRepository
	mail  *mailMocks.MockMailer
}

func newTestService(t *testing.T) (DocumentService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		store: new(storeMocks.MockStorage),
		repo:  new(repoMocks.MockDocumentRepository),
		cats:  new(repoMocks.MockCategoryRepository),
		users: new(repoMocks.MockUserRepository),
		mail:  new(mailMocks.MockMailer),
	}
	svc := NewDocumentService(m.store, m.repo, m.cats, m.users, m.mail, zap.NewNop(), testSiteURL)
	return svc, m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.store.AssertExpectations(t)
	m.repo.AssertExpectations(t)
	m.cats.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.mail.AssertExpectations(t)
}

func repoCreatePassthrough() any {
	return func(ctx context.Context, doc *model.Document) *model.Document { return doc }
}

func TestValidateFileType(t *testing.T) {
	valid := []string{"a.pdf", "b.doc", "c.docx", "d.xls", "e.xlsx", "f.png", "g.jpg", "h.jpeg", "SHOUTY.PDF", "mixed.JpEg"}
	for _, name := range valid {
		assert.NoError(t, ValidateFileType(name), name)
	}

	invalid := []string{"a.exe", "b.txt", "noext", "archive.tar.gz", "trailingdot.", "x.pdf.sh"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateFileType(name), ErrUnsupportedFileType, name)
	}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	owner := &model.User{ID: "owner-1", Username: "alice", Email: "alice@example.com"}

	tests := []struct {
		name       string
		input      UploadInput
		setupMocks func(m *serviceMocks) io.Reader
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path sends exactly one notification",
			input: UploadInput{
				File:      FileUpload{Filename: "report.pdf", ContentType: "application/pdf", Size: 11},
				Title:     "Quarterly report",
				OwnerID:   owner.ID,
				IsPrivate: false,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello world")
				m.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Title == "Quarterly report" &&
						doc.Filename == "report.pdf" &&
						strings.HasPrefix(doc.StoragePath, "documents/") &&
						strings.HasSuffix(doc.StoragePath, ".pdf") &&
						doc.OwnerID == owner.ID &&
						!doc.UploadedAt.IsZero()
				})).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
				}), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "report.pdf"},
				}).Return(storage.ObjectInfo{Size: 11}, nil)
				m.users.On("FindByID", ctx, owner.ID).Return(owner, nil)
				dateLine := regexp.MustCompile(`Upload Date: \d{4}-\d{2}-\d{2} \d{2}:\d{2}\n`)
				m.mail.On("Send", []string{owner.Email}, "New Document Uploaded: Quarterly report", mock.MatchedBy(func(body string) bool {
					return strings.Contains(body, "Title: Quarterly report") &&
						strings.Contains(body, "Category: none") &&
						strings.Contains(body, "Privacy: Public") &&
						dateLine.MatchString(body)
				})).Return(nil).Once()
				return r
			},
		},
		{
			name: "notification failure does not fail the upload",
			input: UploadInput{
				File:    FileUpload{Filename: "photo.jpg", Size: 3},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("img")
				m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).Return(storage.ObjectInfo{}, nil)
				m.users.On("FindByID", ctx, owner.ID).Return(owner, nil)
				m.mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
				return r
			},
		},
		{
			name: "owner without email skips notification",
			input: UploadInput{
				File:    FileUpload{Filename: "sheet.xlsx", Size: 4},
				OwnerID: "owner-2",
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("data")
				m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).Return(storage.ObjectInfo{}, nil)
				m.users.On("FindByID", ctx, "owner-2").Return(&model.User{ID: "owner-2", Username: "bob"}, nil)
				return r
			},
		},
		{
			name: "category name appears in the notification",
			input: UploadInput{
				File:       FileUpload{Filename: "invoice.pdf", Size: 2},
				CategoryID: strPtr("cat-1"),
				OwnerID:    owner.ID,
				IsPrivate:  true,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("xx")
				m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).Return(storage.ObjectInfo{}, nil)
				m.users.On("FindByID", ctx, owner.ID).Return(owner, nil)
				m.cats.On("FindByID", ctx, "cat-1").Return(&model.Category{ID: "cat-1", Name: "Finance"}, nil)
				m.mail.On("Send", []string{owner.Email}, mock.Anything, mock.MatchedBy(func(body string) bool {
					return strings.Contains(body, "Category: Finance") &&
						strings.Contains(body, "Privacy: Private")
				})).Return(nil).Once()
				return r
			},
		},
		{
			name: "unsupported extension touches nothing",
			input: UploadInput{
				File:    FileUpload{Filename: "malware.exe", Size: 5},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				return strings.NewReader("nope")
			},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name: "extension check is case-insensitive on the reject side too",
			input: UploadInput{
				File:    FileUpload{Filename: "script.ShEll", Size: 5},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				return strings.NewReader("nope")
			},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name: "nil reader",
			input: UploadInput{
				File:    FileUpload{Filename: "ok.pdf"},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader { return nil },
			wantErr:    ErrReaderNil,
		},
		{
			name: "missing owner",
			input: UploadInput{
				File: FileUpload{Filename: "ok.pdf"},
			},
			setupMocks: func(m *serviceMocks) io.Reader { return strings.NewReader("x") },
			wantErr:    ErrIDRequired,
		},
		{
			name: "repository error performs no storage write",
			input: UploadInput{
				File:    FileUpload{Filename: "doc.docx", Size: 5},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello")
				m.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				return r
			},
			wantErrMsg: "save document: db fail",
		},
		{
			name: "storage error rolls the record back",
			input: UploadInput{
				File:    FileUpload{Filename: "doc.docx", Size: 5},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello")
				m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				m.repo.On("Delete", ctx, mock.Anything).Return(nil).Once()
				return r
			},
			wantErrMsg: "upload to storage failed: storage fail",
		},
		{
			name: "storage error with failed rollback reports both",
			input: UploadInput{
				File:    FileUpload{Filename: "doc.docx", Size: 5},
				OwnerID: owner.ID,
			},
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello")
				m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil)
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				m.repo.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail")).Once()
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)

			tt.input.File.Reader = tt.setupMocks(m)

			doc, err := svc.Upload(ctx, tt.input)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			case tt.wantErrMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, doc)
			default:
				assert.NoError(t, err)
				assert.NotNil(t, doc)
			}

			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_BatchUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch is rejected before any processing", func(t *testing.T) {
		svc, m := newTestService(t)

		res, err := svc.BatchUpload(ctx, nil, nil, false, "owner-1")

		assert.ErrorIs(t, err, ErrEmptyBatch)
		assert.Nil(t, res)
		m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("one bad file never aborts the batch", func(t *testing.T) {
		svc, m := newTestService(t)

		// Owner has no email so no notification mocks are needed.
		m.users.On("FindByID", ctx, "owner-1").Return(&model.User{ID: "owner-1", Username: "alice"}, nil).Twice()
		m.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Title == doc.Filename &&
				strings.Contains(doc.Description, "Uploaded as part of batch upload on ")
		})).Return(repoCreatePassthrough(), nil).Twice()
		m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil).Twice()

		files := []FileUpload{
			{Filename: "a.pdf", Reader: strings.NewReader("a"), Size: 1},
			{Filename: "virus.exe", Reader: strings.NewReader("b"), Size: 1},
			{Filename: "b.png", Reader: strings.NewReader("c"), Size: 1},
		}

		res, err := svc.BatchUpload(ctx, files, nil, true, "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Uploaded)
		assert.Len(t, res.Failures, 1)
		assert.Equal(t, "virus.exe", res.Failures[0].Filename)
		assert.Equal(t, ErrUnsupportedFileType.Error(), res.Failures[0].Reason)
		m.assertExpectations(t)
	})

	t.Run("failures keep input order", func(t *testing.T) {
		svc, m := newTestService(t)

		files := []FileUpload{
			{Filename: "1.txt", Reader: strings.NewReader("a")},
			{Filename: "2.pdf", Reader: strings.NewReader("b")},
			{Filename: "3.bin", Reader: strings.NewReader("c")},
		}
		m.users.On("FindByID", ctx, "owner-1").Return(&model.User{ID: "owner-1"}, nil).Once()
		m.repo.On("Create", ctx, mock.Anything).Return(repoCreatePassthrough(), nil).Once()
		m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil).Once()

		res, err := svc.BatchUpload(ctx, files, nil, false, "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Uploaded)
		assert.Equal(t, []string{"1.txt", "3.bin"}, []string{res.Failures[0].Filename, res.Failures[1].Filename})
		m.assertExpectations(t)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		requester  string
		setupMocks func(m *serviceMocks)
		wantErr    error
	}{
		{
			name:      "owner sees own private document",
			id:        "doc-1",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").
					Return(&model.Document{ID: "doc-1", OwnerID: "owner-1", IsPrivate: true}, nil)
			},
		},
		{
			name:      "stranger sees public document",
			id:        "doc-2",
			requester: "someone-else",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-2").
					Return(&model.Document{ID: "doc-2", OwnerID: "owner-1", IsPrivate: false}, nil)
			},
		},
		{
			name:      "stranger blocked from private document",
			id:        "doc-3",
			requester: "someone-else",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-3").
					Return(&model.Document{ID: "doc-3", OwnerID: "owner-1", IsPrivate: true}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:       "empty id",
			id:         "",
			requester:  "owner-1",
			setupMocks: func(m *serviceMocks) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:      "missing document",
			id:        "nope",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)
			tt.setupMocks(m)

			doc, err := svc.Get(ctx, tt.id, tt.requester)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	stored := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf"}

	tests := []struct {
		name       string
		id         string
		requester  string
		setupMocks func(m *serviceMocks)
		wantErr    error
	}{
		{
			name:      "owner delete removes blob and record",
			id:        "doc-1",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.store.On("Exists", ctx, stored.StoragePath).Return(true, nil)
				m.store.On("Delete", ctx, stored.StoragePath).Return(nil)
				m.repo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name:      "absent blob is a no-op, record still removed",
			id:        "doc-1",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.store.On("Exists", ctx, stored.StoragePath).Return(false, nil)
				m.repo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name:      "blob delete failure does not block record delete",
			id:        "doc-1",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.store.On("Exists", ctx, stored.StoragePath).Return(true, nil)
				m.store.On("Delete", ctx, stored.StoragePath).Return(errors.New("storage fail"))
				m.repo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name:      "non-owner is rejected and nothing is touched",
			id:        "doc-1",
			requester: "intruder",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:      "second delete reports not found",
			id:        "doc-1",
			requester: "owner-1",
			setupMocks: func(m *serviceMocks) {
				m.repo.On("FindByID", ctx, "doc-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "empty id",
			id:         "",
			requester:  "owner-1",
			setupMocks: func(m *serviceMocks) {},
			wantErr:    ErrIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)
			tt.setupMocks(m)

			err := svc.Delete(ctx, tt.id, tt.requester)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				m.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_ListVisible(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the combined filter through", func(t *testing.T) {
		svc, m := newTestService(t)

		want := []model.Document{{ID: "doc-1"}, {ID: "doc-2"}}
		m.repo.On("ListVisible", ctx, repository.VisibilityFilter{
			RequesterID:  "owner-1",
			Search:       "budget",
			CategoryName: "Finance",
		}).Return(want, nil)

		got, err := svc.ListVisible(ctx, "owner-1", "budget", "Finance")

		assert.NoError(t, err)
		assert.Equal(t, want, got)
		m.assertExpectations(t)
	})

	t.Run("requester is mandatory", func(t *testing.T) {
		svc, _ := newTestService(t)

		got, err := svc.ListVisible(ctx, "", "", "")

		assert.ErrorIs(t, err, ErrIDRequired)
		assert.Nil(t, got)
	})
}

func TestDocumentService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("four independent aggregates", func(t *testing.T) {
		svc, m := newTestService(t)

		// 3 documents over 10 days, 2 of them recent, 1 private.
		m.repo.On("CountByOwner", ctx, "owner-1").Return(3, nil)
		m.repo.On("CountDistinctCategoriesByOwner", ctx, "owner-1").Return(2, nil)
		m.repo.On("CountRecentByOwner", ctx, "owner-1", mock.AnythingOfType("time.Time")).Return(2, nil)
		m.repo.On("CountPrivateByOwner", ctx, "owner-1").Return(1, nil)

		got, err := svc.Summary(ctx, "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, &DashboardSummary{
			TotalDocuments:   3,
			TotalCategories:  2,
			RecentUploads:    2,
			PrivateDocuments: 1,
		}, got)
		m.assertExpectations(t)
	})

	t.Run("count error is surfaced", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("CountByOwner", ctx, "owner-1").Return(0, errors.New("db fail"))

		got, err := svc.Summary(ctx, "owner-1")

		assert.Error(t, err)
		assert.Nil(t, got)
		m.assertExpectations(t)
	})
}

func TestDocumentService_PresignDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("visible document gets a URL", func(t *testing.T) {
		svc, m := newTestService(t)

		doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf"}
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("PresignGet", ctx, doc.StoragePath, downloadURLExpiry).
			Return("https://minio.test/presigned", nil)

		url, err := svc.PresignDownload(ctx, "doc-1", "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, "https://minio.test/presigned", url)
		m.assertExpectations(t)
	})

	t.Run("privacy rule applies", func(t *testing.T) {
		svc, m := newTestService(t)

		doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf", IsPrivate: true}
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)

		url, err := svc.PresignDownload(ctx, "doc-1", "intruder")

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, url)
		m.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("visible document streams its blob", func(t *testing.T) {
		svc, m := newTestService(t)

		doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf", Filename: "report.pdf"}
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Get", ctx, doc.StoragePath).
			Return(io.NopCloser(strings.NewReader("pdf-bytes")), storage.ObjectInfo{Key: doc.StoragePath, Size: 9}, nil)

		got, rc, err := svc.Download(ctx, "doc-1", "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, doc, got)
		content, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, "pdf-bytes", string(content))
		m.assertExpectations(t)
	})

	t.Run("privacy rule applies", func(t *testing.T) {
		svc, m := newTestService(t)

		doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf", IsPrivate: true}
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)

		got, rc, err := svc.Download(ctx, "doc-1", "intruder")

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Nil(t, got)
		assert.Nil(t, rc)
		m.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("storage read failure", func(t *testing.T) {
		svc, m := newTestService(t)

		doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StoragePath: "documents/doc-1.pdf"}
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Get", ctx, doc.StoragePath).
			Return(nil, storage.ObjectInfo{}, errors.New("connection reset"))

		got, rc, err := svc.Download(ctx, "doc-1", "owner-1")

		assert.ErrorContains(t, err, "read from storage")
		assert.Nil(t, got)
		assert.Nil(t, rc)
	})
}

func strPtr(s string) *string { return &s }
