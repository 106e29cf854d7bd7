package handler

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docshelf/internal/http/middleware"
	"docshelf/internal/service"
)

// requesterID returns the identity stored by middleware.Identity.
func requesterID(c *fiber.Ctx) string {
	if v, ok := c.Locals(middleware.UserIDLocalKey).(string); ok {
		return v
	}
	return ""
}

func fileUploadFromHeader(fh *multipart.FileHeader) (service.FileUpload, func() error, error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileUpload{}, nil, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return service.FileUpload{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Reader:      f,
	}, f.Close, nil
}

func categoryIDFromForm(c *fiber.Ctx) *string {
	if v := c.FormValue("category_id"); v != "" {
		return &v
	}
	return nil
}

// ListDocuments returns documents visible to the requester.
//
// Query params: q (title/description substring), category (exact name).
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.ListVisible(c.UserContext(), requesterID(c), c.Query("q"), c.Query("category"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	}
}

// UploadDocument handles a single multipart upload (field name: file).
// Optional form fields: title, description, category_id, is_private.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		file, closeFile, err := fileUploadFromHeader(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer closeFile()

		isPrivate, _ := strconv.ParseBool(c.FormValue("is_private", "false"))

		doc, err := docSvc.Upload(c.UserContext(), service.UploadInput{
			File:        file,
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			CategoryID:  categoryIDFromForm(c),
			OwnerID:     requesterID(c),
			IsPrivate:   isPrivate,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// BatchUploadDocuments handles a multipart batch upload (field name: files).
// Shared form fields: category_id, is_private. Per-file failures come back in
// the result body, not as an error status.
func BatchUploadDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "invalid multipart form")
		}

		headers := form.File["files"]
		files := make([]service.FileUpload, 0, len(headers))
		closers := make([]func() error, 0, len(headers))
		defer func() {
			for _, cl := range closers {
				cl()
			}
		}()
		for _, fh := range headers {
			file, closeFile, err := fileUploadFromHeader(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			closers = append(closers, closeFile)
			files = append(files, file)
		}

		isPrivate, _ := strconv.ParseBool(c.FormValue("is_private", "false"))

		res, err := docSvc.BatchUpload(c.UserContext(), files, categoryIDFromForm(c), isPrivate, requesterID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns one document, honoring the privacy rule.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id, requesterID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument returns a time-limited download URL for a visible document.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := docSvc.PresignDownload(c.UserContext(), id, requesterID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// DownloadDocumentContent streams a visible document's bytes directly,
// for clients that cannot follow a pre-signed URL.
func DownloadDocumentContent(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, rc, err := docSvc.Download(c.UserContext(), id, requesterID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
		// fasthttp closes the stream when it implements io.Closer.
		return c.SendStream(rc, int(doc.Size))
	}
}

// DeleteDocument removes a document; only its owner may do so.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id, requesterID(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DashboardSummary returns the requester's aggregate counts.
func DashboardSummary(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := docSvc.Summary(c.UserContext(), requesterID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(summary)
	}
}
