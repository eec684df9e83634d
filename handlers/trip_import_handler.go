// handlers/trip_import_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gewnthar/verif-rotation/models"
	"github.com/gewnthar/verif-rotation/services"
	"github.com/gewnthar/verif-rotation/tabular"
)

// msgMissingFile is the message the web client already knows for an upload
// without a file part.
const msgMissingFile = "CSV manquant"

// multipartMemory is how much of an upload is held in memory before the
// multipart reader spills to temp files.
const multipartMemory = 8 << 20

// TripImporter runs the trip pipeline over an opened upload.
type TripImporter interface {
	RunRows(ctx context.Context, source string, rows tabular.RowReader) (*models.TripImportResult, error)
}

type TripImportHandler struct {
	importer       TripImporter
	maxUploadBytes int64
}

func NewTripImportHandler(importer TripImporter, maxUploadBytes int64) *TripImportHandler {
	return &TripImportHandler{importer: importer, maxUploadBytes: maxUploadBytes}
}

// ImportTrips handles POST /imports/trips with a multipart "file" part
// holding a CSV (any name) or an XLSX workbook (*.xlsx).
func (h *TripImportHandler) ImportTrips(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, http.ErrNotMultipart):
			respondWithError(w, http.StatusBadRequest, msgMissingFile)
		default:
			respondWithError(w, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		}
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Printf("WARN Handler: removing multipart temp files: %v", err)
		}
	}()

	header := uploadedFile(r.MultipartForm)
	if header == nil {
		respondWithError(w, http.StatusBadRequest, msgMissingFile)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Cannot open uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	rows, err := openRows(header.Filename, file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("Handler: trip import %q (%d bytes)", header.Filename, header.Size)

	result, err := h.importer.RunRows(r.Context(), header.Filename, rows)
	if err != nil {
		if errors.Is(err, services.ErrMalformedUpload) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to import trips: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// uploadedFile prefers the "file" part and otherwise takes the first file
// part of the form, whatever its field name.
func uploadedFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File["file"]; len(files) > 0 {
		return files[0]
	}
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func openRows(filename string, file io.Reader) (tabular.RowReader, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		sheet, err := tabular.ReadWorkbook(file)
		if err != nil {
			return nil, fmt.Errorf("Unreadable XLSX file: %v", err)
		}
		return tabular.NewSliceReader(sheet), nil
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("Cannot read uploaded file: %v", err)
	}
	return tabular.NewDelimitedReader(string(raw)), nil
}
