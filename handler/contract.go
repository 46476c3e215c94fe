package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/okumurakoki/contractguard-sub001/middleware"
	"github.com/okumurakoki/contractguard-sub001/model"
	"github.com/okumurakoki/contractguard-sub001/pkg/logger"
	"github.com/okumurakoki/contractguard-sub001/service"
)

type ContractHandler struct {
	store    *service.ContractStore
	versions *service.VersionStore
	reviews  *service.ReviewStore
	blobs    service.BlobStore
	analyzer *service.AnalysisService
	auditor  *service.Auditor
	urlTTL   time.Duration
}

func NewContractHandler(store *service.ContractStore, versions *service.VersionStore, reviews *service.ReviewStore, blobs service.BlobStore, analyzer *service.AnalysisService, auditor *service.Auditor, urlTTL time.Duration) *ContractHandler {
	return &ContractHandler{
		store:    store,
		versions: versions,
		reviews:  reviews,
		blobs:    blobs,
		analyzer: analyzer,
		auditor:  auditor,
		urlTTL:   urlTTL,
	}
}

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Upload handles contract file upload: writes the blob and the contract
// record with status "analyzing". Analysis itself runs on a separate call.
func (h *ContractHandler) Upload(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	username := middleware.GetUsername(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	expectedContentType, ok := allowedExtensions[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOCX and TXT files are supported"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = expectedContentType
	} else if ext == ".pdf" && !strings.Contains(contentType, "pdf") {
		// Try to detect from file header for PDF
		buffer := make([]byte, 512)
		if _, err := file.Read(buffer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		file.Seek(0, io.SeekStart)

		detectedType := http.DetectContentType(buffer)
		if !strings.Contains(detectedType, "pdf") && detectedType != "application/octet-stream" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		contentType = "application/pdf"
	}

	contractID := uuid.New().String()
	objectName := fmt.Sprintf("%s/%s/%s", organization, contractID, header.Filename)

	if err := h.blobs.Upload(c.Request.Context(), objectName, file, header.Size, contentType); err != nil {
		logger.Error(c.Request.Context(), "blob upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, ext)
	}

	contract := &model.Contract{
		ID:               contractID,
		OrganizationID:   organization,
		UploaderName:     username,
		FileName:         header.Filename,
		FilePath:         objectName,
		FileSize:         header.Size,
		FileType:         contentType,
		Title:            title,
		CounterpartyName: c.PostForm("counterparty_name"),
		OurPosition:      c.PostForm("our_position"),
		Status:           model.StatusAnalyzing,
	}
	if err := h.store.Create(c.Request.Context(), contract); err != nil {
		logger.Error(c.Request.Context(), "contract create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contract"})
		return
	}

	h.auditor.Record(c.Request.Context(), organization, username,
		"contract.upload", "contract", contractID, header.Filename)

	c.JSON(http.StatusCreated, gin.H{
		"id":        contractID,
		"file_name": header.Filename,
		"title":     contract.Title,
		"status":    contract.Status,
	})
}

// List returns all contracts for the caller's organization
func (h *ContractHandler) List(c *gin.Context) {
	organization := middleware.GetOrganization(c)

	contracts, err := h.store.ListByOrganization(c.Request.Context(), organization)
	if err != nil {
		logger.Error(c.Request.Context(), "contract list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts"})
		return
	}

	// Slim view for list: no edited content payloads
	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":              contract.ID,
			"file_name":       contract.FileName,
			"title":           contract.Title,
			"status":          contract.Status,
			"current_version": contract.CurrentVersion,
			"created_at":      contract.CreatedAt.Format(time.RFC3339),
			"updated_at":      contract.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a single contract
func (h *ContractHandler) Get(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	id := c.Param("id")

	contract, err := h.store.Get(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "load contract")
		return
	}

	c.JSON(http.StatusOK, contract)
}

// GetStatus returns the processing status of a contract
func (h *ContractHandler) GetStatus(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	id := c.Param("id")

	contract, err := h.store.Get(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "load contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              contract.ID,
		"status":          contract.Status,
		"current_version": contract.CurrentVersion,
	})
}

// Download returns a time-limited signed URL for the original upload
func (h *ContractHandler) Download(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	id := c.Param("id")

	contract, err := h.store.Get(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "load contract")
		return
	}

	url, err := h.blobs.PresignedURL(c.Request.Context(), contract.FilePath, h.urlTTL)
	if err != nil {
		logger.Error(c.Request.Context(), "presigned url failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(h.urlTTL.Seconds()),
	})
}

// Delete deletes a contract and its stored blob
func (h *ContractHandler) Delete(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	username := middleware.GetUsername(c)
	id := c.Param("id")

	contract, err := h.store.Get(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "load contract")
		return
	}

	if err := h.store.Delete(c.Request.Context(), organization, id); err != nil {
		h.respondError(c, err, "delete contract")
		return
	}

	// Blob removal is best-effort; the record is already gone
	if err := h.blobs.Delete(c.Request.Context(), contract.FilePath); err != nil {
		logger.Warn(c.Request.Context(), "blob delete failed",
			"contract_id", id, "error", err)
	}

	h.auditor.Record(c.Request.Context(), organization, username,
		"contract.delete", "contract", id, contract.FileName)

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

// Analyze runs the synchronous AI analysis pipeline for a contract.
// Pipeline failures report a generic outcome; internal detail stays in the
// server log.
func (h *ContractHandler) Analyze(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	username := middleware.GetUsername(c)
	id := c.Param("id")

	outcome, err := h.analyzer.AnalyzeContract(c.Request.Context(), organization, id, username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		logger.Error(c.Request.Context(), "analysis pipeline failed",
			"contract_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review":           outcome.Review,
		"risks":            outcome.Result.Risks,
		"is_mock_analysis": outcome.IsMockAnalysis,
		"content_html":     outcome.ContentHTML,
	})
}

// GetReview returns the contract's current review with its risk items
func (h *ContractHandler) GetReview(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	id := c.Param("id")

	review, items, err := h.reviews.GetReview(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "load review")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review": review,
		"risks":  items,
	})
}

type UpdateContentRequest struct {
	Content string `json:"content" binding:"required"`
	Summary string `json:"summary"`
}

// UpdateContent records an edit as a new immutable version. Unchanged
// content is a no-op and consumes no version number.
func (h *ContractHandler) UpdateContent(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	username := middleware.GetUsername(c)
	id := c.Param("id")

	var req UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	summary := req.Summary
	if summary == "" {
		summary = "Edited content"
	}

	version, err := h.versions.RecordEdit(c.Request.Context(), organization, id, req.Content, username, summary)
	if err != nil {
		h.respondError(c, err, "record edit")
		return
	}

	h.auditor.Record(c.Request.Context(), organization, username,
		"contract.edit", "contract", id, fmt.Sprintf("version %d", version))

	c.JSON(http.StatusOK, gin.H{"version": version})
}

// ListVersions returns the contract's versions newest-first
func (h *ContractHandler) ListVersions(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	id := c.Param("id")

	versions, err := h.versions.ListVersions(c.Request.Context(), organization, id)
	if err != nil {
		h.respondError(c, err, "list versions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// RestoreVersion appends a new version mirroring a past version's content
func (h *ContractHandler) RestoreVersion(c *gin.Context) {
	organization := middleware.GetOrganization(c)
	username := middleware.GetUsername(c)
	id := c.Param("id")
	versionID := c.Param("versionId")

	version, err := h.versions.Restore(c.Request.Context(), organization, id, versionID, username)
	if err != nil {
		h.respondError(c, err, "restore version")
		return
	}

	h.auditor.Record(c.Request.Context(), organization, username,
		"contract.restore", "contract", id, fmt.Sprintf("restored as version %d", version))

	c.JSON(http.StatusOK, gin.H{"version": version})
}

// respondError maps service failure kinds to transport responses.
func (h *ContractHandler) respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
	case errors.Is(err, service.ErrConcurrentVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent edit conflict, please retry"})
	default:
		logger.Error(c.Request.Context(), op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
