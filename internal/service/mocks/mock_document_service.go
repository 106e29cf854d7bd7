package mocks

import (
	"context"
	"io"

	"docshelf/internal/model"
	"docshelf/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) BatchUpload(ctx context.Context, files []service.FileUpload, categoryID *string, isPrivate bool, ownerID string) (*service.BatchUploadResult, error) {
	args := m.Called(ctx, files, categoryID, isPrivate, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchUploadResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id, requesterID string) (*model.Document, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id, requesterID string) error {
	args := m.Called(ctx, id, requesterID)
	return args.Error(0)
}

func (m *MockDocumentService) ListVisible(ctx context.Context, requesterID, search, categoryName string) ([]model.Document, error) {
	args := m.Called(ctx, requesterID, search, categoryName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Summary(ctx context.Context, requesterID string) (*service.DashboardSummary, error) {
	args := m.Called(ctx, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardSummary), args.Error(1)
}

func (m *MockDocumentService) PresignDownload(ctx context.Context, id, requesterID string) (string, error) {
	args := m.Called(ctx, id, requesterID)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id, requesterID string) (*model.Document, io.ReadCloser, error) {
	args := m.Called(ctx, id, requesterID)
	var doc *model.Document
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	var rc io.ReadCloser
	if args.Get(1) != nil {
		rc = args.Get(1).(io.ReadCloser)
	}
	return doc, rc, args.Error(2)
}
