package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tansell/receipt-ledger/internal/pipeline"
	"github.com/tansell/receipt-ledger/internal/profile"
)

// maxUploadSize bounds the request body and multipart parsing;
// high-resolution phone photos need more headroom than the 10MB default.
const maxUploadSize = int64(50 << 20)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleListProfiles returns the authenticated user's profile names
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request, username string) {
	names, err := s.store.ListProfiles(username)
	if err != nil {
		slog.Error("Error listing profiles", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": names})
}

// handleCreateProfile creates a named profile for the authenticated user
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request, username string) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.store.CreateProfile(username, body.Name); err != nil {
		if errors.Is(err, profile.ErrEmptyProfileName) {
			writeError(w, http.StatusBadRequest, "Please enter a profile name")
			return
		}
		var busy *profile.ConcurrencyError
		if errors.As(err, &busy) {
			writeError(w, http.StatusServiceUnavailable, "Profile table is busy, try again")
			return
		}
		slog.Error("Error creating profile", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
}

// handleDeleteProfile removes all occurrences of the profile from the
// user's index. The profile's record table is intentionally left behind.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request, username string) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Profile name required")
		return
	}
	if err := s.store.DeleteProfile(username, name); err != nil {
		var busy *profile.ConcurrencyError
		if errors.As(err, &busy) {
			writeError(w, http.StatusServiceUnavailable, "Profile table is busy, try again")
			return
		}
		slog.Error("Error deleting profile", "username", username, "profile", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTotalPrice returns the summed price of the profile's records
func (s *Server) handleTotalPrice(w http.ResponseWriter, r *http.Request, username string) {
	name := r.PathValue("name")
	total, err := s.store.TotalPrice(username, name)
	if err != nil {
		slog.Error("Error totaling prices", "username", username, "profile", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"total": total})
}

// handleExport streams the record table as a spreadsheet download
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, username string) {
	name := r.PathValue("name")
	data, err := s.store.ExportXLSX(username, name)
	if err != nil {
		slog.Error("Error exporting table", "username", username, "profile", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	filename := fmt.Sprintf("%s_%s_data.xlsx", username, name)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleListUploads returns the user's upload history
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request, username string) {
	entries, err := s.journal.ListEntries(username)
	if err != nil {
		slog.Error("Error listing uploads", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if entries == nil {
		entries = []*pipeline.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleUpload accepts a receipt image and runs it through the pipeline
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, username string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	profileName := r.FormValue("profile")
	if profileName == "" {
		writeError(w, http.StatusBadRequest, "Please select a profile")
		return
	}

	// A record table is only valid for profiles present in the index.
	names, err := s.store.ListProfiles(username)
	if err != nil {
		slog.Error("Error listing profiles", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !slices.Contains(names, profileName) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown profile: %s", profileName))
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded. Please choose a file.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	result, err := s.processor.Process(r.Context(), pipeline.Upload{
		Username:    username,
		Profile:     profileName,
		Filename:    header.Filename,
		Data:        data,
		ContentType: uploadContentType(header.Header.Get("Content-Type"), header.Filename),
	})
	if err != nil {
		slog.Error("Error processing upload",
			"username", username, "profile", profileName,
			"filename", header.Filename, "error", err)
		writeJSON(w, uploadErrorStatus(err), result)
		return
	}

	status := http.StatusCreated
	if result.Stage == pipeline.StageNothingToSave {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// uploadErrorStatus maps a failed stage to a response code.
func uploadErrorStatus(err error) int {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError
	}

	switch stageErr.Stage {
	case pipeline.StageImageReceived, pipeline.StageBudgetChecked:
		return http.StatusBadRequest
	case pipeline.StageParsed:
		// "could not extract details" - malformed structuring response
		return http.StatusUnprocessableEntity
	case pipeline.StagePersisting:
		var busy *profile.ConcurrencyError
		if errors.As(err, &busy) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		// OCR or LLM adapter failure
		return http.StatusBadGateway
	}
}

// uploadContentType fills in a missing Content-Type from the filename
// extension, the way browsers sometimes omit it for camera uploads.
func uploadContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
